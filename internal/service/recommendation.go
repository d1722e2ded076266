package service

import (
	"sort"

	"tams/internal/model"
)

// NoRating 无已签署且已评分合同时的平均评分
const NoRating = -1.0

// RankedApplication 待排序的申请及其历史平均评分
type RankedApplication struct {
	Application model.Application
	Rating      float64
}

// Rank 按评分降序取前 amount 个。
// 同分保持输入顺序；NoRating 按数值参与比较；不修改入参。
func Rank(candidates []RankedApplication, amount int) []RankedApplication {
	if amount <= 0 {
		return []RankedApplication{}
	}

	sorted := make([]RankedApplication, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	if amount > len(sorted) {
		amount = len(sorted)
	}
	return sorted[:amount]
}
