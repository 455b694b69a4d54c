package settings

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
)

// Keys
const (
	KeyCurrentTopic  = "current_topic"
	KeyHallResetDate = "hall_reset_date"
)

const (
	DefaultHallResetDate = "2000-01-01"
	MaxTopicLen          = 50
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("setting not found")
	ErrTopicEmpty   = core.Invalid("please enter a topic")
	ErrTopicTooLong = core.Invalid(fmt.Sprintf("topics must be at most %d characters", MaxTopicLen))
)

type (
	Repository interface {
		GetSetting(ctx context.Context, key string) (string, error)
		// SetSetting inserts or replaces the value of key.
		SetSetting(ctx context.Context, key, value string) error
	}

	Service struct {
		repo         Repository
		defaultTopic string
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	topic := conf.DefaultTopic
	if topic == "" {
		topic = "Nature"
	}
	return &Service{repo: repo, defaultTopic: topic}
}

// Get returns the value of key, or def when it was never set.
func (svc *Service) Get(ctx context.Context, key, def string) (string, error) {
	val, err := svc.repo.GetSetting(ctx, key)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return def, nil
		}
		return "", errors.Wrapf(err, "getting setting %q", key)
	}
	return val, nil
}

func (svc *Service) Set(ctx context.Context, key, value string) error {
	return errors.Wrapf(svc.repo.SetSetting(ctx, key, value), "setting %q", key)
}

func (svc *Service) Topic(ctx context.Context) (string, error) {
	return svc.Get(ctx, KeyCurrentTopic, svc.defaultTopic)
}

func (svc *Service) SetTopic(ctx context.Context, topic string) (string, error) {
	topic = core.CleanString(topic)
	if topic == "" {
		return "", ErrTopicEmpty
	}
	if core.CharCount(topic) > MaxTopicLen {
		return "", ErrTopicTooLong
	}
	if err := svc.Set(ctx, KeyCurrentTopic, topic); err != nil {
		return "", err
	}
	return topic, nil
}

// HallResetDate is the first day counted by the Hall of Fame.
func (svc *Service) HallResetDate(ctx context.Context) (string, error) {
	return svc.Get(ctx, KeyHallResetDate, DefaultHallResetDate)
}
