package selection

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/avolkov/towertune/internal/catalog"
	"github.com/avolkov/towertune/internal/storage/sqlite"
	"github.com/avolkov/towertune/pkg/logger"
)

// Aliases for cleaner logging calls
var (
	String = logger.String
	Error  = logger.Error
)

var (
	// ErrNoMatchSelected means the user left the fuzzy matcher or the
	// favorites list without choosing anything. Not a failure.
	ErrNoMatchSelected = errors.New("no channel selected")

	// ErrAmbiguousFuzzyMatch means a chosen display line did not map
	// back to exactly one catalog record.
	ErrAmbiguousFuzzyMatch = errors.New("fuzzy selection is ambiguous")
)

const webcamTag = " [webcam available]"

// FavoritesStore is the slice of the favorites store the engine needs.
type FavoritesStore interface {
	Record(icao, channelDescription string) error
	List() ([]sqlite.FavoriteEntry, error)
}

// Result is a fully resolved selection, ready for playback.
type Result struct {
	StreamURL string
	WebcamURL string
	Record    catalog.ChannelRecord
}

// Config holds selection behavior settings
type Config struct {
	// FavoritesFallback is where Favorites goes when no stored entry
	// resolves against the catalog: "guided" or "fuzzy".
	FavoritesFallback string
}

// Engine resolves a single channel out of the catalog through one of
// the guided, fuzzy, favorites or direct modes. It is single-user and
// not safe for concurrent use.
type Engine struct {
	store     *catalog.Store
	favorites FavoritesStore
	prompter  Prompter
	matcher   Matcher
	config    Config
	rng       *rand.Rand
	logger    *logger.Logger
}

// NewEngine creates a selection engine over the given catalog
func NewEngine(store *catalog.Store, favorites FavoritesStore, prompter Prompter, matcher Matcher, config Config, log *logger.Logger) *Engine {
	return &Engine{
		store:     store,
		favorites: favorites,
		prompter:  prompter,
		matcher:   matcher,
		config:    config,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    log.Named("selection"),
	}
}

// Drill-down states. Back edges go one level up; option lists are
// recomputed from the store on every entry so no stale filters survive
// a back step.
type state int

const (
	stateContinent state = iota
	stateCountry
	stateAirport
	stateChannel
)

// airportGroup is one airport menu option: every record sharing a
// (city, airport name) pair, compared case-insensitively.
type airportGroup struct {
	label   string
	records []catalog.ChannelRecord
}

// Guided resolves a channel through the continent / country / airport /
// channel drill-down.
func (e *Engine) Guided() (Result, error) {
	var (
		continent string
		country   string
		group     airportGroup
	)

	st := stateContinent
	for {
		switch st {
		case stateContinent:
			continents := e.store.Continents()
			res, err := e.prompter.Select("Select a continent", continents, false)
			if err != nil {
				return Result{}, err
			}
			continent = continents[res.Index]
			st = stateCountry

		case stateCountry:
			countries := e.store.CountriesIn(continent)
			res, err := e.prompter.Select(fmt.Sprintf("Select a country in %s", continent), countries, true)
			if err != nil {
				return Result{}, err
			}
			if res.Back {
				st = stateContinent
				continue
			}
			country = countries[res.Index]
			st = stateAirport

		case stateAirport:
			groups, err := e.airportGroups(continent, country)
			if err != nil {
				return Result{}, err
			}
			labels := make([]string, len(groups))
			for i, g := range groups {
				labels[i] = g.label
			}
			res, err := e.prompter.Select(fmt.Sprintf("Select an airport in %s", country), labels, true)
			if err != nil {
				return Result{}, err
			}
			if res.Back {
				st = stateCountry
				continue
			}
			group = groups[res.Index]
			if len(group.records) == 1 {
				return e.resolve(group.records[0], true)
			}
			st = stateChannel

		case stateChannel:
			rec, back, err := e.channelSelect(group.records, true)
			if err != nil {
				return Result{}, err
			}
			if back {
				st = stateAirport
				continue
			}
			return e.resolve(rec, true)
		}
	}
}

// Fuzzy resolves a channel through one free-text query over the whole
// catalog.
func (e *Engine) Fuzzy() (Result, error) {
	records := e.store.All()
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = Label(rec)
	}

	choice, ok, err := e.matcher.Pick(lines, "channel")
	if err != nil {
		return Result{}, fmt.Errorf("fuzzy matcher: %w", err)
	}
	if !ok {
		return Result{}, ErrNoMatchSelected
	}

	// Map the chosen line back by regenerating labels. Anything other
	// than exactly one hit means the displayed lines were not unique.
	var matches []catalog.ChannelRecord
	for _, rec := range records {
		if Label(rec) == choice {
			matches = append(matches, rec)
		}
	}
	if len(matches) != 1 {
		return Result{}, fmt.Errorf("%w: %q maps to %d records", ErrAmbiguousFuzzyMatch, choice, len(matches))
	}
	return e.resolve(matches[0], true)
}

// Favorites resolves a channel from the usage-ranked favorites list.
// Entries whose channel no longer exists in the catalog are dropped
// from the menu. When nothing is left the engine announces the
// fallback and switches to the configured mode.
func (e *Engine) Favorites() (Result, error) {
	entries, err := e.favorites.List()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load favorites: %w", err)
	}

	var resolved []catalog.ChannelRecord
	for _, entry := range entries {
		rec, ok := e.findChannel(entry.ICAO, entry.ChannelDescription)
		if !ok {
			e.logger.Debug("Dropping favorite no longer in catalog",
				String("icao", entry.ICAO),
				String("channel", entry.ChannelDescription))
			continue
		}
		resolved = append(resolved, rec)
	}

	if len(resolved) == 0 {
		e.logger.Info("No favorites resolve against the catalog, falling back",
			String("mode", e.config.FavoritesFallback))
		if e.config.FavoritesFallback == "fuzzy" {
			return e.Fuzzy()
		}
		return e.Guided()
	}

	labels := make([]string, len(resolved))
	for i, rec := range resolved {
		labels[i] = Label(rec)
	}
	res, err := e.prompter.Select("Select a favorite", labels, false)
	if err != nil {
		return Result{}, err
	}
	return e.resolve(resolved[res.Index], true)
}

// ByICAO resolves a channel for one airport code. A single channel
// resolves immediately; several go through channel selection, or a
// uniform random pick when random is set. Random picks stay out of
// favorites.
func (e *Engine) ByICAO(icao string, random bool) (Result, error) {
	records, err := e.store.ChannelsForICAO(icao)
	if err != nil {
		return Result{}, err
	}

	if random {
		return e.resolve(records[e.rng.Intn(len(records))], false)
	}
	if len(records) == 1 {
		return e.resolve(records[0], true)
	}

	rec, _, err := e.channelSelect(records, false)
	if err != nil {
		return Result{}, err
	}
	return e.resolve(rec, true)
}

// Random resolves a uniformly random channel from the whole catalog,
// without touching favorites.
func (e *Engine) Random() (Result, error) {
	records := e.store.All()
	if len(records) == 0 {
		return Result{}, catalog.ErrCatalogEmpty
	}
	return e.resolve(records[e.rng.Intn(len(records))], false)
}

// Label is the display line for a record in fuzzy and favorites menus.
// It regenerates byte-for-byte from the record, which is what lets a
// chosen line map back to the record that produced it.
func Label(rec catalog.ChannelRecord) string {
	code := rec.ICAO
	if rec.IATA != "" {
		code += "/" + rec.IATA
	}
	label := fmt.Sprintf("[%s, %s] %s (%s) | %s", rec.City, rec.Country, rec.AirportName, code, rec.ChannelDescription)
	if rec.HasWebcam() {
		label += webcamTag
	}
	return label
}

// airportGroups builds the airport menu for a region: records grouped
// by (city, airport name), groups sorted by display label. A group is
// tagged when any of its channels has a webcam.
func (e *Engine) airportGroups(continent, country string) ([]airportGroup, error) {
	records, err := e.store.ChannelsIn(continent, country)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*airportGroup)
	var order []string
	for _, rec := range records {
		key := catalog.Normalize(rec.City) + "|" + catalog.Normalize(rec.AirportName)
		g, ok := byKey[key]
		if !ok {
			g = &airportGroup{}
			byKey[key] = g
			order = append(order, key)
		}
		g.records = append(g.records, rec)
	}

	groups := make([]airportGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		first := g.records[0]
		label := fmt.Sprintf("%s - %s", first.City, first.AirportName)
		for _, rec := range g.records {
			if rec.HasWebcam() {
				label += webcamTag
				break
			}
		}
		g.label = label
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].label < groups[j].label })
	return groups, nil
}

// channelSelect presents the distinct channel descriptions of a record
// set, sorted, each annotated when that specific record has a webcam.
// Duplicate descriptions keep the first record seen.
func (e *Engine) channelSelect(records []catalog.ChannelRecord, allowBack bool) (catalog.ChannelRecord, bool, error) {
	type option struct {
		label string
		rec   catalog.ChannelRecord
	}
	seen := make(map[string]bool)
	var opts []option
	for _, rec := range records {
		key := catalog.Normalize(rec.ChannelDescription)
		if seen[key] {
			continue
		}
		seen[key] = true
		label := rec.ChannelDescription
		if rec.HasWebcam() {
			label += webcamTag
		}
		opts = append(opts, option{label: label, rec: rec})
	}
	sort.Slice(opts, func(i, j int) bool {
		return opts[i].rec.ChannelDescription < opts[j].rec.ChannelDescription
	})

	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.label
	}
	res, err := e.prompter.Select("Select a channel", labels, allowBack)
	if err != nil {
		return catalog.ChannelRecord{}, false, err
	}
	if res.Back {
		return catalog.ChannelRecord{}, true, nil
	}
	return opts[res.Index].rec, false, nil
}

// findChannel looks up one record by airport code and channel
// description, both matched case-insensitively.
func (e *Engine) findChannel(icao, description string) (catalog.ChannelRecord, bool) {
	records, err := e.store.ChannelsForICAO(icao)
	if err != nil {
		return catalog.ChannelRecord{}, false
	}
	want := catalog.Normalize(description)
	for _, rec := range records {
		if catalog.Normalize(rec.ChannelDescription) == want {
			return rec, true
		}
	}
	return catalog.ChannelRecord{}, false
}

// resolve builds the result and records the favorite unless the pick
// was random. A favorites write failure must not abort playback.
func (e *Engine) resolve(rec catalog.ChannelRecord, trackFavorite bool) (Result, error) {
	if trackFavorite && e.favorites != nil {
		if err := e.favorites.Record(rec.ICAO, rec.ChannelDescription); err != nil {
			e.logger.Warn("Failed to record favorite", String("icao", rec.ICAO), Error(err))
		}
	}
	e.logger.Info("Channel resolved",
		String("icao", rec.ICAO),
		String("airport", rec.AirportName),
		String("channel", rec.ChannelDescription))
	return Result{StreamURL: rec.StreamURL, WebcamURL: rec.WebcamURL, Record: rec}, nil
}
