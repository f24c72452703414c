package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-closet-must-flow/internal/analytics"
	"github.com/Veraticus/the-closet-must-flow/internal/common"
)

// Policy is the policy.* section of the config file.
type Policy struct {
	Timezone           string        `mapstructure:"timezone" validate:"required"`
	ChallengeDuration  time.Duration `mapstructure:"challenge_duration" validate:"gt=0"`
	HorizonDays        int           `mapstructure:"horizon_days" validate:"gte=1"`
	ChallengeSize      int           `mapstructure:"challenge_size" validate:"gte=1,lte=50"`
	MaxMatches         int           `mapstructure:"max_matches" validate:"gte=1"`
	TopItems           int           `mapstructure:"top_items" validate:"gte=1"`
	BaselineMonths     int           `mapstructure:"baseline_months" validate:"gte=1,lte=24"`
	ConflictAttempts   int           `mapstructure:"conflict_attempts" validate:"gte=1,lte=10"`
	ColorWeight        float64       `mapstructure:"color_weight" validate:"gte=0,lte=1"`
	StyleWeight        float64       `mapstructure:"style_weight" validate:"gte=0,lte=1"`
	UnderuseWeight     float64       `mapstructure:"underuse_weight" validate:"gte=0,lte=1"`
	NeutralBaseline    float64       `mapstructure:"neutral_baseline" validate:"gte=0,lte=1"`
	MatchThreshold     float64       `mapstructure:"match_threshold" validate:"gte=0,lte=1"`
	ReasoningThreshold float64       `mapstructure:"reasoning_threshold" validate:"gte=0,lte=1"`
}

var validate = validator.New()

// SetPolicyDefaults registers the default policy under policy.* so that
// environment overrides such as CLOSET_POLICY_HORIZON_DAYS are picked up.
func SetPolicyDefaults(v *viper.Viper) {
	d := analytics.DefaultConfig()
	v.SetDefault("policy.timezone", d.Location.String())
	v.SetDefault("policy.challenge_duration", d.ChallengeDuration)
	v.SetDefault("policy.horizon_days", d.HorizonDays)
	v.SetDefault("policy.challenge_size", d.ChallengeSize)
	v.SetDefault("policy.max_matches", d.MaxMatches)
	v.SetDefault("policy.top_items", d.TopItems)
	v.SetDefault("policy.baseline_months", d.BaselineMonths)
	v.SetDefault("policy.conflict_attempts", d.ConflictAttempts)
	v.SetDefault("policy.color_weight", d.ColorWeight)
	v.SetDefault("policy.style_weight", d.StyleWeight)
	v.SetDefault("policy.underuse_weight", d.UnderuseWeight)
	v.SetDefault("policy.neutral_baseline", d.NeutralBaseline)
	v.SetDefault("policy.match_threshold", d.MatchThreshold)
	v.SetDefault("policy.reasoning_threshold", d.ReasoningThreshold)
}

// LoadPolicy reads policy.* from v and converts it to an analytics.Config.
func LoadPolicy(v *viper.Viper) (analytics.Config, error) {
	SetPolicyDefaults(v)

	// Unmarshal rather than UnmarshalKey so nested env overrides apply.
	var settings struct {
		Policy Policy `mapstructure:"policy"`
	}
	if err := v.Unmarshal(&settings); err != nil {
		return analytics.Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return settings.Policy.Config()
}

// Config validates the policy and converts it.
func (p Policy) Config() (analytics.Config, error) {
	if err := validate.Struct(&p); err != nil {
		return analytics.Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return analytics.Config{}, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, p.Timezone, err)
	}

	cfg := analytics.Config{
		Location:           loc,
		ChallengeDuration:  p.ChallengeDuration,
		HorizonDays:        p.HorizonDays,
		ChallengeSize:      p.ChallengeSize,
		MaxMatches:         p.MaxMatches,
		TopItems:           p.TopItems,
		BaselineMonths:     p.BaselineMonths,
		ConflictAttempts:   p.ConflictAttempts,
		ColorWeight:        p.ColorWeight,
		StyleWeight:        p.StyleWeight,
		UnderuseWeight:     p.UnderuseWeight,
		NeutralBaseline:    p.NeutralBaseline,
		MatchThreshold:     p.MatchThreshold,
		ReasoningThreshold: p.ReasoningThreshold,
	}
	if err := cfg.Validate(); err != nil {
		return analytics.Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return cfg, nil
}
