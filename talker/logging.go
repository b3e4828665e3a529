package talker

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger that prints LevelFatal as "FATAL".
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key != slog.LevelKey {
				return attr
			}

			if lvl, ok := attr.Value.Any().(slog.Level); ok && lvl >= LevelFatal {
				attr.Value = slog.StringValue("FATAL")
			}

			return attr
		},
	}))
}
