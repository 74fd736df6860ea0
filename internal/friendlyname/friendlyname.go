// Package friendlyname generates memorable workspace names such as
// "myproject-swift-falcon".
package friendlyname

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

// maxAttempts is the number of random suffixes tried before a counter is appended.
const maxAttempts = 100

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

var adjectives = []string{
	"autumn", "bold", "bright", "calm", "clever", "cosmic", "crisp", "crystal",
	"daring", "dawn", "deep", "dusty", "eager", "early", "fading", "fierce",
	"floral", "forest", "frosty", "gentle", "golden", "grand", "happy", "hidden",
	"hollow", "humble", "icy", "jolly", "keen", "lively", "lucky", "lunar",
	"misty", "morning", "noble", "northern", "odd", "pale", "patient", "peaceful",
	"plain", "polite", "proud", "quiet", "rapid", "restless", "rocky", "royal",
	"rustic", "sandy", "serene", "shiny", "silent", "silver", "simple", "sleepy",
	"snowy", "soft", "solar", "solid", "sparkling", "spring", "stellar", "still",
	"storm", "summer", "swift", "tidal", "twilight", "velvet", "wandering", "warm",
	"western", "wild", "winter", "wispy", "young", "zesty",
}

var nouns = []string{
	"aurora", "badger", "brook", "canyon", "cedar", "cloud", "comet", "coral",
	"crane", "creek", "dawn", "delta", "dove", "dream", "dusk", "eagle",
	"ember", "falcon", "fern", "field", "finch", "flame", "forest", "fox",
	"frost", "glade", "grove", "harbor", "hawk", "heron", "hill", "horizon",
	"island", "lake", "leaf", "luna", "maple", "meadow", "mist", "moon",
	"moss", "mountain", "night", "oak", "ocean", "otter", "owl", "palm",
	"peak", "pebble", "phoenix", "pine", "pond", "rain", "raven", "reef",
	"ridge", "river", "robin", "rock", "rose", "sage", "shadow", "shore",
	"sky", "snow", "sparrow", "spirit", "star", "stone", "stream", "sun",
	"thunder", "tide", "trail", "tree", "valley", "wave", "willow", "wind",
}

// Sanitize replaces every character outside [A-Za-z0-9_-] with an underscore.
func Sanitize(project string) string {
	return unsafeChars.ReplaceAllString(project, "_")
}

// Suffix returns a random "adjective-noun" pair.
func Suffix(rng *rand.Rand) string {
	return adjectives[rng.IntN(len(adjectives))] + "-" + nouns[rng.IntN(len(nouns))]
}

// Generate returns a name of the form project-adjective-noun that is not in
// existing. After maxAttempts collisions a numeric suffix starting at 2 is
// appended. A nil rng uses a randomly seeded source.
func Generate(project string, existing map[string]bool, rng *rand.Rand) string {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // names, not secrets
	}
	safe := Sanitize(project)

	for range maxAttempts {
		name := safe + "-" + Suffix(rng)
		if !existing[name] {
			return name
		}
	}

	base := safe + "-" + Suffix(rng)
	counter := 2
	for existing[fmt.Sprintf("%s-%d", base, counter)] {
		counter++
	}
	return fmt.Sprintf("%s-%d", base, counter)
}
