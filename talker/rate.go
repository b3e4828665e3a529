package talker

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

const DefaultFrequencyHz = 10

// LevelFatal marks misconfiguration that the talker survives by falling back to defaults.
const LevelFatal = slog.Level(12)

// RateConfig is the publishing rate, resolved once at startup.
type RateConfig struct {
	FrequencyHz int
}

// Period is the spacing between the start of two ticks.
func (c RateConfig) Period() time.Duration {
	if c.FrequencyHz <= 0 {
		return time.Second / DefaultFrequencyHz
	}

	period := time.Second / time.Duration(c.FrequencyHz)
	if period <= 0 {
		return time.Nanosecond
	}

	return period
}

// ResolveRate picks the frequency from the optional first positional argument.
//
// It never fails: a missing argument gives DefaultFrequencyHz, and zero, negative or
// unparsable values are logged and replaced with DefaultFrequencyHz.
func ResolveRate(ctx context.Context, logger *slog.Logger, args []string) RateConfig {
	if len(args) == 0 {
		return RateConfig{FrequencyHz: DefaultFrequencyHz}
	}

	frequency, err := strconv.Atoi(args[0])
	if err != nil {
		logger.WarnContext(ctx, "talker could not parse frequency",
			slog.String("input", args[0]),
			slog.String("err", err.Error()),
		)
		frequency = 0
	}

	switch {
	case frequency > 0:
		logger.DebugContext(ctx, "talker publishing at frequency", slog.Int("frequency_hz", frequency))
		return RateConfig{FrequencyHz: frequency}
	case frequency < 0:
		logger.Log(ctx, LevelFatal, "talker expects positive value of frequency", slog.Int("frequency_hz", frequency))
	default:
		logger.ErrorContext(ctx, "talker expects non-zero frequency")
	}

	logger.WarnContext(ctx, "talker frequency set to default value", slog.Int("frequency_hz", DefaultFrequencyHz))

	return RateConfig{FrequencyHz: DefaultFrequencyHz}
}
