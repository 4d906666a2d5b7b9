package utils

import "testing"

func TestFormatCrores(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00 Cr"},
		{5, "₹5.00 Cr"},
		{100, "₹100.00 Cr"},
		{999.99, "₹999.99 Cr"},
		{1000, "₹1,000.00 Cr"},
		{5001.5, "₹5,001.50 Cr"},
		{12345, "₹12,345.00 Cr"},
		{123456, "₹1,23,456.00 Cr"},
		{1234567, "₹12,34,567.00 Cr"},
		{12345678.9, "₹1,23,45,678.90 Cr"},
		{-5001.5, "-₹5,001.50 Cr"},
	}

	for _, tt := range tests {
		if got := FormatCrores(tt.amount); got != tt.want {
			t.Errorf("FormatCrores(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatRatio(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{5.0, "5.0x"},
		{4.25, "4.2x"},
		{0, "0.0x"},
		{12.96, "13.0x"},
	}

	for _, tt := range tests {
		if got := FormatRatio(tt.ratio); got != tt.want {
			t.Errorf("FormatRatio(%v) = %q, want %q", tt.ratio, got, tt.want)
		}
	}
}
