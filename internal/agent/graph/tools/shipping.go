package tools

import (
	"context"
	"strings"

	"github.com/Chative-support-router/server/internal/store"
)

type regionInput struct {
	Region string `json:"region" validate:"required"`
}

type cheapestInput struct {
	Region  string `json:"region" validate:"required"`
	MaxDays *int   `json:"max_days" validate:"omitempty,min=1"`
}

type estimateInput struct {
	Region     string `json:"region" validate:"required"`
	MethodName string `json:"method_name"`
}

func (c *catalog) deliveryOptions(ctx context.Context, in *regionInput) (any, error) {
	methods, err := c.Store.ShippingOptions(ctx, in.Region)
	if err != nil {
		return nil, err
	}
	return payload{"region": in.Region, "methods": methods, "count": len(methods)}, nil
}

func (c *catalog) cheapestDelivery(ctx context.Context, in *cheapestInput) (any, error) {
	methods, err := c.Store.ShippingOptions(ctx, in.Region)
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if in.MaxDays != nil && m.EstDaysMax > *in.MaxDays {
			continue
		}
		return payload{"found": true, "region": in.Region, "option": m}, nil
	}
	return payload{"found": false, "region": in.Region}, nil
}

func (c *catalog) estimateDeliveryCost(ctx context.Context, in *estimateInput) (any, error) {
	methods, err := c.Store.ShippingOptions(ctx, in.Region)
	if err != nil {
		return nil, err
	}
	var pick *store.ShippingMethod
	for i := range methods {
		if in.MethodName == "" || strings.EqualFold(methods[i].Name, in.MethodName) {
			pick = &methods[i]
			break
		}
	}
	if pick == nil {
		return payload{"found": false, "region": in.Region, "method_name": in.MethodName}, nil
	}
	return payload{"found": true, "region": in.Region, "estimate": pick}, nil
}
