package job

import (
	"context"
	"errors"
)

// Func 是任务函数，ctx 取消时应尽快返回
type Func func(ctx context.Context) error

type Job struct {
	// Job name，同时作为任务日志的来源
	Name string `yaml:"name" json:"name" toml:"name"`
	// Job function
	Func Func `yaml:"-" json:"-" toml:"-"`
}

func (j *Job) Validate() error {
	if j == nil {
		return errors.New("job is nil")
	}
	if j.Name == "" {
		return errors.New("job name is required")
	}
	if j.Func == nil {
		return errors.New("job function is required")
	}
	return nil
}
