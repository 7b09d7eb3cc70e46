package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/avolkov/towertune/pkg/logger"
)

var (
	String = logger.String
	Int    = logger.Int
)

var (
	// ErrCatalogNotFound indicates the catalog file does not exist
	ErrCatalogNotFound = errors.New("catalog file not found")
	// ErrCatalogEmpty indicates the catalog parsed to zero playable records
	ErrCatalogEmpty = errors.New("catalog contains no channels")
	// ErrNoChannelsForRegion indicates a continent/country pair with no channels
	ErrNoChannelsForRegion = errors.New("no channels for region")
	// ErrIcaoNotFound indicates an ICAO code with no channels in the catalog
	ErrIcaoNotFound = errors.New("no channels for ICAO")
)

// catalogRow mirrors the catalog CSV header. State/Province and
// NearbyICAOs are optional columns; unknown columns are ignored.
type catalogRow struct {
	Continent          string `csv:"Continent"`
	Country            string `csv:"Country"`
	City               string `csv:"City"`
	StateProvince      string `csv:"State/Province"`
	AirportName        string `csv:"Airport Name"`
	ICAO               string `csv:"ICAO"`
	IATA               string `csv:"IATA"`
	ChannelDescription string `csv:"Channel Description"`
	StreamURL          string `csv:"Stream URL"`
	WebcamURL          string `csv:"Webcam URL"`
	NearbyICAOs        string `csv:"NearbyICAOs"`
}

// Store holds the loaded channel catalog and serves read-only queries.
// The record set never changes after Load, so it is safe for concurrent
// readers without locking.
type Store struct {
	records []ChannelRecord
	byICAO  map[string][]int
	logger  *logger.Logger
}

// Load reads and validates the catalog CSV at the given path
func Load(path string, log *logger.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	store, err := parse(f, log.Named("catalog"))
	if err != nil {
		return nil, err
	}

	store.logger.Info("Catalog loaded",
		String("path", path),
		Int("channels", len(store.records)),
	)
	return store, nil
}

func parse(r io.Reader, log *logger.Logger) (*Store, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrCatalogEmpty
		}
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	var rows []catalogRow
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	records := make([]ChannelRecord, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.ICAO) == "" || strings.TrimSpace(row.StreamURL) == "" {
			log.Warn("Skipping unplayable catalog row",
				Int("line", i+2),
				String("airport", row.AirportName),
				String("channel", row.ChannelDescription),
			)
			continue
		}

		// Duplicate (ICAO, description) pairs are a data-quality problem:
		// both rows are kept, but the collision is surfaced.
		key := Normalize(row.ICAO) + "|" + Normalize(row.ChannelDescription)
		if seen[key] {
			log.Warn("Duplicate channel in catalog",
				String("icao", strings.TrimSpace(row.ICAO)),
				String("channel", strings.TrimSpace(row.ChannelDescription)),
			)
		}
		seen[key] = true

		records = append(records, ChannelRecord{
			Continent:          strings.TrimSpace(row.Continent),
			Country:            strings.TrimSpace(row.Country),
			City:               strings.TrimSpace(row.City),
			StateProvince:      strings.TrimSpace(row.StateProvince),
			AirportName:        strings.TrimSpace(row.AirportName),
			ICAO:               strings.TrimSpace(row.ICAO),
			IATA:               strings.TrimSpace(row.IATA),
			ChannelDescription: strings.TrimSpace(row.ChannelDescription),
			StreamURL:          strings.TrimSpace(row.StreamURL),
			WebcamURL:          strings.TrimSpace(row.WebcamURL),
			NearbyICAOs:        splitICAOList(row.NearbyICAOs),
		})
	}

	if len(records) == 0 {
		return nil, ErrCatalogEmpty
	}

	byICAO := make(map[string][]int)
	for i, rec := range records {
		key := Normalize(rec.ICAO)
		byICAO[key] = append(byICAO[key], i)
	}

	return &Store{records: records, byICAO: byICAO, logger: log}, nil
}

// splitICAOList parses the optional NearbyICAOs column, which separates
// codes with semicolons or commas.
func splitICAOList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == ' '
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of records in the catalog
func (s *Store) Len() int {
	return len(s.records)
}

// All returns a copy of every record in catalog order
func (s *Store) All() []ChannelRecord {
	out := make([]ChannelRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Continents returns the distinct continent names, case-preserving, sorted
func (s *Store) Continents() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.records {
		key := Normalize(r.Continent)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r.Continent)
	}
	sort.Strings(out)
	return out
}

// CountriesIn returns the distinct countries within a continent, matched
// case-insensitively, sorted
func (s *Store) CountriesIn(continent string) []string {
	want := Normalize(continent)
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.records {
		if Normalize(r.Continent) != want {
			continue
		}
		key := Normalize(r.Country)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r.Country)
	}
	sort.Strings(out)
	return out
}

// ChannelsIn returns the records for a continent/country pair in catalog
// order. Returns ErrNoChannelsForRegion if the pair has no channels.
func (s *Store) ChannelsIn(continent, country string) ([]ChannelRecord, error) {
	wantContinent := Normalize(continent)
	wantCountry := Normalize(country)
	var out []ChannelRecord
	for _, r := range s.records {
		if Normalize(r.Continent) == wantContinent && Normalize(r.Country) == wantCountry {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s / %s", ErrNoChannelsForRegion, continent, country)
	}
	return out, nil
}

// ChannelsForICAO returns every record matching the ICAO code
// case-insensitively. Returns ErrIcaoNotFound if there are none.
func (s *Store) ChannelsForICAO(icao string) ([]ChannelRecord, error) {
	idxs := s.byICAO[Normalize(icao)]
	if len(idxs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIcaoNotFound, icao)
	}
	out := make([]ChannelRecord, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.records[i])
	}
	return out, nil
}
