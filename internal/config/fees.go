package config

import (
	"fmt"
	"log"
	"os"

	"crewpay/internal/models"

	"gopkg.in/yaml.v3"
)

type feeFile struct {
	Fees models.FeeSchedule `yaml:"fees"`
}

// LoadFeeSchedule reads the platform fee schedule from FEE_SCHEDULE_PATH.
// A missing file falls back to models.DefaultFeeSchedule.
func LoadFeeSchedule() (models.FeeSchedule, error) {
	path := GetEnv("FEE_SCHEDULE_PATH", "config/fees.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("fee schedule %s not found, using defaults", path)
			return models.DefaultFeeSchedule, nil
		}
		return models.FeeSchedule{}, fmt.Errorf("failed to read fee schedule: %w", err)
	}
	return ParseFeeSchedule(data)
}

func ParseFeeSchedule(data []byte) (models.FeeSchedule, error) {
	file := feeFile{Fees: models.DefaultFeeSchedule}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return models.FeeSchedule{}, fmt.Errorf("failed to parse fee schedule: %w", err)
	}
	if file.Fees.PlatformFeeBps < 0 || file.Fees.PlatformFeeBps > 10000 {
		return models.FeeSchedule{}, fmt.Errorf("platform_fee_bps out of range: %d", file.Fees.PlatformFeeBps)
	}
	if file.Fees.MinimumFee < 0 {
		return models.FeeSchedule{}, fmt.Errorf("minimum_fee_cents must not be negative")
	}
	return file.Fees, nil
}
