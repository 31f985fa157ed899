package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/stockledger/internal/canon"
	"github.com/mamadbah2/stockledger/internal/engine"
)

// PolicyFile is the YAML document holding the engine's business conventions.
type PolicyFile struct {
	Placeholder struct {
		Year int      `yaml:"year"`
		Days []string `yaml:"days"`
	} `yaml:"placeholder"`
	ExcludedVendors      []string         `yaml:"excluded_vendors"`
	PseudoItemPrefixes   []string         `yaml:"pseudo_item_prefixes"`
	ShipmentTransitDays  *int             `yaml:"shipment_transit_days"`
	HorizonDays          *int             `yaml:"horizon_days"`
	ReconcileMinAbsDelta string           `yaml:"reconcile_min_abs_delta"`
	Items                canon.Dictionary `yaml:"items"`
}

// LoadPolicy builds the engine policy and item canonicalizer. Defaults apply
// when no policy file is configured; numeric environment overrides win over
// the file.
func LoadPolicy(cfg EngineConfig) (engine.Policy, *canon.Canonicalizer, error) {
	policy := engine.DefaultPolicy()
	var file PolicyFile

	if cfg.PolicyPath != "" {
		b, err := os.ReadFile(cfg.PolicyPath)
		if err != nil {
			return policy, nil, fmt.Errorf("read policy file: %w", err)
		}
		if err := yaml.Unmarshal(b, &file); err != nil {
			return policy, nil, fmt.Errorf("parse policy file %s: %w", cfg.PolicyPath, err)
		}
		if err := file.apply(&policy); err != nil {
			return policy, nil, fmt.Errorf("policy file %s: %w", cfg.PolicyPath, err)
		}
	}

	if err := overrideInt(&policy.HorizonDays, cfg.HorizonDays, "ENGINE_HORIZON_DAYS"); err != nil {
		return policy, nil, err
	}
	if err := overrideInt(&policy.ShipmentTransitDays, cfg.ShipmentTransitDays, "ENGINE_SHIPMENT_TRANSIT_DAYS"); err != nil {
		return policy, nil, err
	}
	if cfg.ReconcileMinAbsDelta != "" {
		v, err := decimal.NewFromString(cfg.ReconcileMinAbsDelta)
		if err != nil {
			return policy, nil, fmt.Errorf("ENGINE_RECONCILE_MIN_ABS_DELTA: %w", err)
		}
		policy.ReconcileMinAbsDelta = v
	}

	items, err := canon.New(file.Items)
	if err != nil {
		return policy, nil, fmt.Errorf("item dictionary: %w", err)
	}
	return policy, items, nil
}

func (f PolicyFile) apply(policy *engine.Policy) error {
	if f.Placeholder.Year != 0 {
		policy.Calendar.Year = f.Placeholder.Year
	}
	if len(f.Placeholder.Days) > 0 {
		days := make([]engine.MonthDay, 0, len(f.Placeholder.Days))
		for _, raw := range f.Placeholder.Days {
			t, err := time.Parse("01-02", raw)
			if err != nil {
				return fmt.Errorf("placeholder day %q: %w", raw, err)
			}
			days = append(days, engine.MonthDay{Month: t.Month(), Day: t.Day()})
		}
		policy.Calendar.Days = days
	}
	if f.ExcludedVendors != nil {
		policy.ExcludedVendors = f.ExcludedVendors
	}
	if f.PseudoItemPrefixes != nil {
		policy.PseudoItemPrefixes = f.PseudoItemPrefixes
	}
	if f.ShipmentTransitDays != nil {
		policy.ShipmentTransitDays = *f.ShipmentTransitDays
	}
	if f.HorizonDays != nil {
		policy.HorizonDays = *f.HorizonDays
	}
	if f.ReconcileMinAbsDelta != "" {
		v, err := decimal.NewFromString(f.ReconcileMinAbsDelta)
		if err != nil {
			return fmt.Errorf("reconcile_min_abs_delta: %w", err)
		}
		policy.ReconcileMinAbsDelta = v
	}
	return nil
}

func overrideInt(dst *int, value, name string) error {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("%s must be a non-negative integer, got %q", name, value)
	}
	*dst = n
	return nil
}
