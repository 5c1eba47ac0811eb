package validator

import "testing"

type testPayload struct {
	Slug     string `json:"slug" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Cooldown int64  `json:"cooldown_seconds" validate:"gte=0"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Slug:     "gram-alpha",
		Title:    "Alpha",
		Cooldown: 3600,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Slug:     "",
		Title:    "",
		Cooldown: -1,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundCooldown := false
	for _, v := range vErrs {
		if v.Field == "cooldown_seconds" {
			foundCooldown = true
		}
	}

	if !foundCooldown {
		t.Fatal("expected cooldown_seconds field to be present in validation errors")
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "slug", Tag: "required"},
		{Field: "cooldown_seconds", Tag: "gte", Param: "0"},
	}

	msg := errs.Error()
	if msg != "slug failed on required; cooldown_seconds failed on gte=0" {
		t.Fatalf("unexpected message: %s", msg)
	}
}
