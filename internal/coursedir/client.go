// Package coursedir 课程服务客户端：课程开课时间、选课人数与负责讲师查询。
package coursedir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"tams/config"
	"tams/internal/model"
	applogger "tams/pkg/logger"
)

// ErrCourseNotFound 课程服务返回 404
var ErrCourseNotFound = errors.New("课程不存在")

// Client 课程服务 HTTP 客户端
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient 创建课程服务客户端
func NewClient(cfg *config.CourseServiceConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type courseBody struct {
	ID           string    `json:"id"`
	StartDate    time.Time `json:"start_date"`
	StudentCount int       `json:"student_count"`
}

type lecturerBody struct {
	Responsible bool `json:"responsible"`
}

// GetCourse GET /courses/{id}
func (c *Client) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	var body courseBody
	if err := c.getJSON(ctx, "/courses/"+url.PathEscape(courseID), &body); err != nil {
		return nil, err
	}
	return &model.Course{ID: courseID, StartDate: body.StartDate, StudentCount: body.StudentCount}, nil
}

// IsResponsibleLecturer GET /courses/{id}/lecturers/{netID}
func (c *Client) IsResponsibleLecturer(ctx context.Context, netID, courseID string) (bool, error) {
	var body lecturerBody
	path := "/courses/" + url.PathEscape(courseID) + "/lecturers/" + url.PathEscape(netID)
	if err := c.getJSON(ctx, path, &body); err != nil {
		return false, err
	}
	return body.Responsible, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if rid := applogger.RequestIDFrom(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("课程服务请求失败", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("课程服务请求失败: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrCourseNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("课程服务返回 %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("解析课程服务响应失败: %w", err)
	}
	return nil
}
