package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/store"
)

type BurgerService struct {
	burgers BurgerStore
	log     *zap.Logger
}

func NewBurgerService(burgers BurgerStore, log *zap.Logger) *BurgerService {
	log = logger.OrNop(log)
	return &BurgerService{burgers: burgers, log: log}
}

func (s *BurgerService) Create(ctx context.Context, name string, price decimal.Decimal) (model.Burger, error) {
	name, err := validateBurger(name, price)
	if err != nil {
		return model.Burger{}, fmt.Errorf("create burger: %w", err)
	}

	exists, err := s.burgers.ExistsByName(ctx, name)
	if err != nil {
		return model.Burger{}, fmt.Errorf("create burger: %w", err)
	}
	if exists {
		return model.Burger{}, fmt.Errorf("create burger: name %q: %w", name, ErrDuplicate)
	}

	b := model.Burger{Name: name, UnitPrice: price}
	if err := s.burgers.Create(ctx, &b); err != nil {
		return model.Burger{}, fmt.Errorf("create burger: %w", err)
	}
	s.log.Info("burger created", zap.Int64("id", b.ID), zap.String("name", b.Name))
	return b, nil
}

func (s *BurgerService) List(ctx context.Context) ([]model.Burger, error) {
	burgers, err := s.burgers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list burgers: %w", err)
	}
	return burgers, nil
}

func (s *BurgerService) Get(ctx context.Context, id int64) (model.Burger, error) {
	b, err := s.burgers.Get(ctx, id)
	if err != nil {
		return model.Burger{}, fmt.Errorf("get burger %d: %w", id, err)
	}
	return b, nil
}

func (s *BurgerService) Update(ctx context.Context, id int64, name string, price decimal.Decimal) (model.Burger, error) {
	name, err := validateBurger(name, price)
	if err != nil {
		return model.Burger{}, fmt.Errorf("update burger %d: %w", id, err)
	}

	current, err := s.burgers.Get(ctx, id)
	if err != nil {
		return model.Burger{}, fmt.Errorf("update burger %d: %w", id, err)
	}

	if current.Name != name {
		exists, err := s.burgers.ExistsByName(ctx, name)
		if err != nil {
			return model.Burger{}, fmt.Errorf("update burger %d: %w", id, err)
		}
		if exists {
			return model.Burger{}, fmt.Errorf("update burger %d: name %q: %w", id, name, ErrDuplicate)
		}
	}

	updated := model.Burger{ID: id, Name: name, UnitPrice: price}
	if err := s.burgers.Update(ctx, updated); err != nil {
		return model.Burger{}, fmt.Errorf("update burger %d: %w", id, err)
	}
	return updated, nil
}

func (s *BurgerService) Delete(ctx context.Context, id int64) error {
	err := s.burgers.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrReferenced):
		return fmt.Errorf("delete burger %d: referenced by an order: %w", id, ErrConflict)
	default:
		return fmt.Errorf("delete burger %d: %w", id, err)
	}
}

func validateBurger(name string, price decimal.Decimal) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < model.MinBurgerNameLength {
		return "", fmt.Errorf("name must be at least %d characters: %w", model.MinBurgerNameLength, ErrInvalidInput)
	}
	if price.IsNegative() {
		return "", fmt.Errorf("unit price must not be negative: %w", ErrInvalidInput)
	}
	return name, nil
}
