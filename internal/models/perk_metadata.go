package models

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

// DiscountMetadata describes a percentage or fixed-amount discount redeemed
// in person.
type DiscountMetadata struct {
	Percent     decimal.Decimal `mapstructure:"percent" json:"percent"`
	Description string          `mapstructure:"description" json:"description"`
}

// FreeItemMetadata names the item handed over on redemption.
type FreeItemMetadata struct {
	ItemName string `mapstructure:"item_name" json:"item_name"`
	SKU      string `mapstructure:"sku" json:"sku"`
}

// AccessMetadata grants entry to an area or event.
type AccessMetadata struct {
	AreaName string `mapstructure:"area_name" json:"area_name"`
	Level    string `mapstructure:"level" json:"level"`
}

// ShopifyDiscountMetadata links a perk to a Shopify price rule.
type ShopifyDiscountMetadata struct {
	PriceRuleID  string          `mapstructure:"price_rule_id" json:"price_rule_id"`
	DiscountCode string          `mapstructure:"discount_code" json:"discount_code"`
	Amount       decimal.Decimal `mapstructure:"amount" json:"amount"`
}

// ShopifyFreeProductMetadata links a perk to a free Shopify product.
type ShopifyFreeProductMetadata struct {
	ProductID string `mapstructure:"product_id" json:"product_id"`
	VariantID string `mapstructure:"variant_id" json:"variant_id"`
}

// DecodeMetadata decodes the perk's raw metadata into the typed payload for
// its type. New perk types are compile-checked additions here rather than
// silent shape drift in an untyped bag.
func (p *Perk) DecodeMetadata() (any, error) {
	raw := map[string]any{}
	if len(p.Metadata) > 0 {
		if err := json.Unmarshal(p.Metadata, &raw); err != nil {
			return nil, fmt.Errorf("perk metadata: unmarshal: %w", err)
		}
	}

	var target any
	switch p.Type {
	case PerkTypeDiscount:
		target = &DiscountMetadata{}
	case PerkTypeFreeItem:
		target = &FreeItemMetadata{}
	case PerkTypeAccess:
		target = &AccessMetadata{}
	case PerkTypeShopifyDiscount:
		target = &ShopifyDiscountMetadata{}
	case PerkTypeShopifyFreeProduct:
		target = &ShopifyFreeProductMetadata{}
	default:
		return nil, fmt.Errorf("perk metadata: unsupported type %q", p.Type)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decimalDecodeHook,
		Result:     target,
		TagName:    "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("perk metadata: build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("perk metadata: decode %s payload: %w", p.Type, err)
	}
	return target, nil
}

// decimalDecodeHook converts JSON numbers and strings into decimal.Decimal.
func decimalDecodeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(decimal.Decimal{}) {
		return data, nil
	}

	switch v := data.(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	default:
		return data, nil
	}
}
