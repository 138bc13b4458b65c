// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type tokenFile struct {
	ClientID     string `json:"client_id" validate:"notblank"`
	ClientSecret string `json:"client_secret" validate:"notblank"`
	RefreshToken string `json:"refresh_token" validate:"notblank"`
	AccessToken  string `json:"access_token"`
}

type triggerBody struct {
	Streams []string `json:"streams" validate:"omitempty,max=4,dive,stream"`
	Wait    int      `json:"wait_seconds" validate:"gte=0,lte=3600"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
	}{
		{"tokens", &tokenFile{ClientID: "23ABC", ClientSecret: "s3cr3t", RefreshToken: "r"}},
		{"trigger all streams", &triggerBody{}},
		{"trigger subset", &triggerBody{Streams: []string{"sleep", "heart_rate"}, Wait: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:      "empty client id",
			input:     &tokenFile{ClientSecret: "s", RefreshToken: "r"},
			wantField: "client_id",
			wantTag:   "notblank",
			wantMsg:   "client_id must not be blank",
		},
		{
			name:      "whitespace refresh token",
			input:     &tokenFile{ClientID: "c", ClientSecret: "s", RefreshToken: "  \t"},
			wantField: "refresh_token",
			wantTag:   "notblank",
		},
		{
			name:      "unknown stream",
			input:     &triggerBody{Streams: []string{"steps", "weight"}},
			wantField: "streams[1]",
			wantTag:   "stream",
			wantMsg:   "streams[1] must be one of: activities, steps, heart_rate, sleep",
		},
		{
			name:      "negative wait",
			input:     &triggerBody{Wait: -1},
			wantField: "wait_seconds",
			wantTag:   "gte",
			wantMsg:   "wait_seconds must be greater than or equal to 0",
		},
		{
			name:      "too many streams",
			input:     &triggerBody{Streams: []string{"steps", "steps", "steps", "steps", "steps"}},
			wantField: "streams",
			wantTag:   "max",
			wantMsg:   "streams must be at most 4 items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
			if tt.wantMsg != "" && errs[0].Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&tokenFile{ClientID: "c", ClientSecret: "s"})
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "refresh_token must not be blank" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "refresh_token" {
		t.Errorf("Details[field] = %v", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&tokenFile{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Errors()) != 3 {
		t.Fatalf("got %d errors, want 3", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	for _, field := range []string{"client_id", "client_secret", "refresh_token"} {
		if !strings.Contains(apiErr.Message, field+":") {
			t.Errorf("Message %q should mention %s", apiErr.Message, field)
		}
	}
	fields, ok := apiErr.Details["fields"].([]map[string]any)
	if !ok || len(fields) != 3 {
		t.Errorf("Details[fields] = %v", apiErr.Details["fields"])
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want messages joined by semicolons", err.Error())
	}
}

func TestToAPIError_Empty(t *testing.T) {
	t.Parallel()

	ve := &RequestValidationError{}
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q", ve.Error())
	}
	if got := ve.ToAPIError(); got.Code != "VALIDATION_ERROR" || got.Message != "Validation failed" {
		t.Errorf("ToAPIError() = %+v", got)
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	t.Parallel()

	err := ValidateStruct("not a struct")
	if err == nil {
		t.Fatal("expected error for non-struct input")
	}
	if err.Errors()[0].Field() != "unknown" {
		t.Errorf("Field() = %q, want unknown", err.Errors()[0].Field())
	}
}
