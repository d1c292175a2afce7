package retention

import (
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", Default(), false},
		{"equal horizons", Config{RawDays: 30, HourlyDays: 30, DailyDays: 30}, false},
		{"raw zero", Config{RawDays: 0, HourlyDays: 30, DailyDays: 365}, true},
		{"raw too long", Config{RawDays: 31, HourlyDays: 60, DailyDays: 365}, true},
		{"hourly too long", Config{RawDays: 7, HourlyDays: 366, DailyDays: 400}, true},
		{"daily too long", Config{RawDays: 7, HourlyDays: 30, DailyDays: 3651}, true},
		{"raw exceeds hourly", Config{RawDays: 10, HourlyDays: 5, DailyDays: 365}, true},
		{"hourly exceeds daily", Config{RawDays: 7, HourlyDays: 90, DailyDays: 60}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}
