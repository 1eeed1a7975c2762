// Package checkout validates the customer form and submits the order.
package checkout

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/presenter"
	"github.com/fjod/go_storefront/pkg/logger"
)

// Form is the checkout form as the customer filled it in.
type Form struct {
	Email   string `json:"email" validate:"required,email_format"`
	Name    string `json:"name" validate:"required"`
	Tel     string `json:"tel" validate:"required,tel_format"`
	Address string `json:"address" validate:"required"`
	Message string `json:"message"`
}

func (f Form) trimmed() Form {
	return Form{
		Email:   strings.TrimSpace(f.Email),
		Name:    strings.TrimSpace(f.Name),
		Tel:     strings.TrimSpace(f.Tel),
		Address: strings.TrimSpace(f.Address),
		Message: strings.TrimSpace(f.Message),
	}
}

// OrderRequest splits the message off from the customer details.
func (f Form) OrderRequest() domain.OrderRequest {
	return domain.OrderRequest{
		User: domain.Customer{
			Email:   f.Email,
			Name:    f.Name,
			Tel:     f.Tel,
			Address: f.Address,
		},
		Message: f.Message,
	}
}

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderReceipt, error)
}

type Submitter struct {
	api       OrderSubmitter
	presenter presenter.Presenter
	validator *FormValidator
	logger    *zap.Logger
}

func New(api OrderSubmitter, p presenter.Presenter, l *zap.Logger) *Submitter {
	return &Submitter{
		api:       api,
		presenter: presenter.OrNop(p),
		validator: NewFormValidator(),
		logger:    logger.OrNop(l).Named("checkout"),
	}
}

// Validate checks f without submitting it.
func (s *Submitter) Validate(f Form) error {
	return s.validator.Validate(f.trimmed())
}

// Submit validates f and, only if it is valid, sends exactly one order request.
// The cart is left alone whatever the outcome.
func (s *Submitter) Submit(ctx context.Context, f Form) (*domain.OrderReceipt, error) {
	f = f.trimmed()
	log := logger.WithContext(ctx, s.logger)

	if err := s.validator.Validate(f); err != nil {
		log.Debug("checkout form rejected", zap.Error(err))
		s.presenter.OnError(presenter.KindValidation, err.Error())
		return nil, err
	}

	receipt, err := s.api.SubmitOrder(ctx, f.OrderRequest())
	if err != nil {
		se := &SubmissionError{Err: err}
		log.Warn("order submission failed", zap.Error(err))
		s.presenter.OnError(presenter.KindOrder, se.Error())
		return nil, se
	}

	log.Info("order submitted",
		zap.String("order_id", receipt.OrderID),
		zap.String("total", receipt.Total.String()))
	return receipt, nil
}
