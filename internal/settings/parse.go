package settings

import (
	"strconv"
	"strings"
	"unicode"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/models"
)

// Update is one key=value token from a settings command.
type Update struct {
	Key   string
	Value string
}

// Setting keys.
const (
	KeyText     = "text"
	KeySize     = "size"
	KeyAngle    = "angle"
	KeyColor    = "color"
	KeyPosition = "position"
	KeyFont     = "font"
)

var keyAliases = map[string]string{
	KeyText:     KeyText,
	KeySize:     KeySize,
	"fontsize":  KeySize,
	KeyAngle:    KeyAngle,
	"rotation":  KeyAngle,
	KeyColor:    KeyColor,
	"colour":    KeyColor,
	KeyPosition: KeyPosition,
	"pos":       KeyPosition,
	KeyFont:     KeyFont,
}

// ParseArgs splits a command's argument string into updates. Tokens are
// separated by whitespace; double quotes group a value with spaces, as in
// text="TOP SECRET". Keys are case-insensitive. Tokens without "=" and
// unknown keys are skipped.
func ParseArgs(args string) ([]Update, error) {
	tokens, err := tokenize(args)
	if err != nil {
		return nil, err
	}

	var updates []Update
	for _, tok := range tokens {
		key, value, found := strings.Cut(tok, "=")
		if !found {
			continue
		}
		canonical, known := keyAliases[strings.ToLower(strings.TrimSpace(key))]
		if !known {
			continue
		}
		updates = append(updates, Update{Key: canonical, Value: strings.TrimSpace(value)})
	}
	return updates, nil
}

func tokenize(s string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, domainerrors.Validation("unterminated quote")
	}
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// Apply folds updates over cfg from left to right. If any value cannot be
// applied the original cfg is returned with the error.
func Apply(cfg models.WatermarkConfig, updates []Update) (models.WatermarkConfig, error) {
	next := cfg
	for _, u := range updates {
		switch u.Key {
		case KeyText:
			next.Text = u.Value
		case KeySize:
			n, err := strconv.Atoi(u.Value)
			if err != nil {
				return cfg, domainerrors.Validationf("size must be an integer, got %q", u.Value)
			}
			next.FontSize = n
		case KeyAngle:
			n, err := strconv.Atoi(u.Value)
			if err != nil {
				return cfg, domainerrors.Validationf("angle must be an integer, got %q", u.Value)
			}
			next.RotationAngle = n
		case KeyColor:
			next.Color = models.Color(strings.ToLower(u.Value))
		case KeyPosition:
			next.Position = models.Position(strings.ToLower(u.Value))
		case KeyFont:
			if canonical := models.CanonicalFont(u.Value); canonical != "" {
				next.Font = canonical
			} else {
				next.Font = u.Value
			}
		default:
			return cfg, domainerrors.Validationf("unknown setting %q", u.Key)
		}
	}
	return next, nil
}

// Summary renders cfg for a chat reply.
func Summary(cfg models.WatermarkConfig) string {
	var b strings.Builder
	b.WriteString("Text: " + cfg.Text + "\n")
	b.WriteString("Size: " + strconv.Itoa(cfg.FontSize) + "\n")
	b.WriteString("Angle: " + strconv.Itoa(cfg.RotationAngle) + "°\n")
	b.WriteString("Color: " + capitalize(string(cfg.Color)) + "\n")
	b.WriteString("Position: " + capitalize(strings.ReplaceAll(string(cfg.Position), "-", " ")) + "\n")
	b.WriteString("Font: " + cfg.Font)
	return b.String()
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
