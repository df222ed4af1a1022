// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidator_Shared(t *testing.T) {
	if v := Validator(); v == nil || v != Validator() {
		t.Error("Validator() should return one shared instance")
	}
}

type entry struct {
	Num      int    `validate:"min=1,max=999"`
	CallSign string `validate:"required,callsign,max=16"`
	Grid     string `validate:"omitempty,gridsquare"`
	Status   string `validate:"omitempty,oneof=Online Offline Away"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input entry
	}{
		{"minimal", entry{Num: 1, CallSign: "W1AW"}},
		{"portable", entry{Num: 2, CallSign: "VE3/W1AW/P"}},
		{"lowercase grid", entry{Num: 3, CallSign: "K1ABC", Grid: "fn31pr"}},
		{"four char grid", entry{Num: 4, CallSign: "K1ABC", Grid: "EM10"}},
		{"status", entry{Num: 5, CallSign: "N0CALL", Status: "Away"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     entry
		wantField string
		wantMsg   string
	}{
		{"zero num", entry{Num: 0, CallSign: "W1AW"}, "Num", "Num must be at least 1"},
		{"missing call", entry{Num: 1}, "CallSign", "CallSign is required"},
		{"delimiter in call", entry{Num: 1, CallSign: "W1AW|X"}, "CallSign", "call sign"},
		{"dangling slash", entry{Num: 1, CallSign: "W1AW/"}, "CallSign", "call sign"},
		{"long call", entry{Num: 1, CallSign: strings.Repeat("A", 17)}, "CallSign", "at most 16 characters"},
		{"bad grid", entry{Num: 1, CallSign: "W1AW", Grid: "ZZ99"}, "Grid", "Maidenhead"},
		{"bad status", entry{Num: 1, CallSign: "W1AW", Status: "Gone"}, "Status", "one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			var ve *Error
			if !errors.As(err, &ve) {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if !ve.HasField(tt.wantField) {
				t.Errorf("fields = %+v, want %s", ve.Fields, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("message %q should contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&entry{Num: -1, Grid: "nope"})
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("error type = %T", err)
	}
	if got := len(ve.Fields); got != 3 {
		t.Errorf("len(Fields) = %d, want 3: %v", got, err)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("combined message should join with '; ': %q", err.Error())
	}
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	t.Parallel()

	err := ValidateStruct("W1AW")
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("error type = %T", err)
	}
	if ve.Fields[0].Field != "unknown" {
		t.Errorf("field = %q, want unknown", ve.Fields[0].Field)
	}
}
