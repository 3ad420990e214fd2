package central

import (
	"context"
	"iter"
	"net/url"
)

// AlertService provides operations on alerts in the caller's data region.
type AlertService interface {
	// List returns one page of alerts matching the filter.
	List(ctx context.Context, filter *AlertFilter, page PageOptions, opts ...RequestOption) (*Page[Alert], error)

	// All returns an iterator over every alert matching the filter.
	All(ctx context.Context, filter *AlertFilter, opts ...RequestOption) iter.Seq2[Alert, error]

	// Get retrieves a single alert by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*Alert, error)

	// Act performs one of the alert's allowed actions.
	Act(ctx context.Context, id string, action AlertAction, message string, opts ...RequestOption) (*ActionResult, error)
}

const alertsPath = "/common/v1/alerts"

type alertService struct {
	client *Client
}

func newAlertService(c *Client) *alertService {
	return &alertService{client: c}
}

func (s *alertService) List(ctx context.Context, filter *AlertFilter, page PageOptions, opts ...RequestOption) (*Page[Alert], error) {
	var result Page[Alert]
	if err := s.client.Get(ctx, alertsPath, page.params(filter.params()), &result, opts...); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *alertService) All(ctx context.Context, filter *AlertFilter, opts ...RequestOption) iter.Seq2[Alert, error] {
	return paginate(ctx, PageOptions{}, func(ctx context.Context, page PageOptions) (*Page[Alert], error) {
		return s.List(ctx, filter, page, opts...)
	})
}

func (s *alertService) Get(ctx context.Context, id string, opts ...RequestOption) (*Alert, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var result Alert
	if err := s.client.Get(ctx, alertsPath+"/"+url.PathEscape(id), nil, &result, opts...); err != nil {
		return nil, err
	}
	return &result, nil
}

type actionRequest struct {
	Action  AlertAction `json:"action"`
	Message string      `json:"message,omitempty"`
}

func (s *alertService) Act(ctx context.Context, id string, action AlertAction, message string, opts ...RequestOption) (*ActionResult, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var result ActionResult
	path := alertsPath + "/" + url.PathEscape(id) + "/actions"
	body := &actionRequest{Action: action, Message: message}
	if err := s.client.Post(ctx, path, body, &result, opts...); err != nil {
		return nil, err
	}
	return &result, nil
}
