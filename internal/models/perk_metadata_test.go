package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestDecodeDiscountMetadata(t *testing.T) {
	perk := &Perk{
		Type:     PerkTypeDiscount,
		Metadata: datatypes.JSON([]byte(`{"percent":"12.5","description":"espresso shots"}`)),
	}

	decoded, err := perk.DecodeMetadata()
	require.NoError(t, err)

	meta, ok := decoded.(*DiscountMetadata)
	require.True(t, ok)
	require.True(t, meta.Percent.Equal(decimal.RequireFromString("12.5")))
	require.Equal(t, "espresso shots", meta.Description)
}

func TestDecodeDiscountMetadataFromNumber(t *testing.T) {
	perk := &Perk{
		Type:     PerkTypeDiscount,
		Metadata: datatypes.JSON([]byte(`{"percent":15}`)),
	}

	decoded, err := perk.DecodeMetadata()
	require.NoError(t, err)

	meta := decoded.(*DiscountMetadata)
	require.True(t, meta.Percent.Equal(decimal.NewFromInt(15)))
}

func TestDecodeFreeItemMetadata(t *testing.T) {
	perk := &Perk{
		Type:     PerkTypeFreeItem,
		Metadata: datatypes.JSON([]byte(`{"item_name":"flat white","sku":"FW-01"}`)),
	}

	decoded, err := perk.DecodeMetadata()
	require.NoError(t, err)

	meta := decoded.(*FreeItemMetadata)
	require.Equal(t, "flat white", meta.ItemName)
	require.Equal(t, "FW-01", meta.SKU)
}

func TestDecodeAccessMetadata(t *testing.T) {
	perk := &Perk{
		Type:     PerkTypeAccess,
		Metadata: datatypes.JSON([]byte(`{"area_name":"green room","level":"vip"}`)),
	}

	decoded, err := perk.DecodeMetadata()
	require.NoError(t, err)

	meta := decoded.(*AccessMetadata)
	require.Equal(t, "green room", meta.AreaName)
	require.Equal(t, "vip", meta.Level)
}

func TestDecodeShopifyMetadata(t *testing.T) {
	discount := &Perk{
		Type:     PerkTypeShopifyDiscount,
		Metadata: datatypes.JSON([]byte(`{"price_rule_id":"pr-1","discount_code":"GRAM10","amount":"10"}`)),
	}
	decoded, err := discount.DecodeMetadata()
	require.NoError(t, err)
	discountMeta := decoded.(*ShopifyDiscountMetadata)
	require.Equal(t, "GRAM10", discountMeta.DiscountCode)
	require.True(t, discountMeta.Amount.Equal(decimal.NewFromInt(10)))

	product := &Perk{
		Type:     PerkTypeShopifyFreeProduct,
		Metadata: datatypes.JSON([]byte(`{"product_id":"123","variant_id":"456"}`)),
	}
	decoded, err = product.DecodeMetadata()
	require.NoError(t, err)
	productMeta := decoded.(*ShopifyFreeProductMetadata)
	require.Equal(t, "123", productMeta.ProductID)
	require.Equal(t, "456", productMeta.VariantID)
}

func TestDecodeMetadataEmptyPayload(t *testing.T) {
	perk := &Perk{Type: PerkTypeFreeItem}

	decoded, err := perk.DecodeMetadata()
	require.NoError(t, err)
	require.Equal(t, &FreeItemMetadata{}, decoded)
}

func TestDecodeMetadataUnknownType(t *testing.T) {
	perk := &Perk{Type: PerkType("raffle")}

	_, err := perk.DecodeMetadata()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported type")
}

func TestPerkTypeValid(t *testing.T) {
	for _, valid := range []PerkType{
		PerkTypeDiscount, PerkTypeFreeItem, PerkTypeAccess,
		PerkTypeShopifyDiscount, PerkTypeShopifyFreeProduct,
	} {
		require.True(t, valid.Valid(), string(valid))
	}
	require.False(t, PerkType("raffle").Valid())
	require.False(t, PerkType("").Valid())
}
