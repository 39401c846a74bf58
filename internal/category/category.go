package category

import (
	"errors"
	"strings"
	"unicode/utf8"
)

type Kind int

const (
	Remote Kind = iota
	Local
)

func (k Kind) String() string {
	switch k {
	case Remote:
		return "remote"
	case Local:
		return "local"
	default:
		return "unknown"
	}
}

const (
	// MaxCategories bounds the number of categories a store accepts.
	// Additional entries are dropped.
	MaxCategories = 32

	MaxNameLength     = 63
	MaxLocationLength = 255

	// LocalPrefix marks a source as a folder on the local filesystem.
	LocalPrefix = "local://"
)

var ErrEmptyStore = errors.New("category store is empty")

// Category is one selectable image source.
type Category struct {
	Name     string
	Kind     Kind
	Location string
}

// Parse builds a Category from a configured name and source.
// Sources starting with LocalPrefix are local folders; everything else is a URL.
// Name and location are truncated to their maximum lengths.
func Parse(name, source string) Category {
	name = strings.TrimSpace(name)
	source = strings.TrimSpace(source)

	c := Category{Name: truncate(name, MaxNameLength), Kind: Remote}
	if strings.HasPrefix(source, LocalPrefix) {
		c.Kind = Local
		source = strings.TrimPrefix(source, LocalPrefix)
	}
	c.Location = truncate(source, MaxLocationLength)
	return c
}

// Source renders the category back into its configured form.
func (c Category) Source() string {
	if c.Kind == Local {
		return LocalPrefix + c.Location
	}
	return c.Location
}

func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Defaults is the built-in category set used when no configuration supplies one.
func Defaults() []Category {
	return []Category{
		Parse("Album", "local:///var/lib/photoframe/album/"),
		Parse("Video Games", "https://gandalfsax.com/images/vg.jpg"),
		Parse("Halloween", "https://gandalfsax.com/images/hw.jpg"),
		Parse("Lofi Time", "https://gandalfsax.com/images/lt.jpg"),
	}
}
