package mocks

import (
	"context"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/admission"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/stretchr/testify/mock"
)

type Service struct {
	mock.Mock
}

func (m *Service) Check(ctx context.Context, d ratelimit.Descriptor) admission.Result {
	args := m.Called(ctx, d)
	return args.Get(0).(admission.Result)
}

func (m *Service) Complete(ctx context.Context, res admission.Result, status int) {
	m.Called(ctx, res, status)
}

func NewService(t interface {
	mock.TestingT
	Cleanup(func())
}) *Service {
	m := &Service{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
