// Package scenario loads a board and its player roster from YAML.
//
//	name: Lance Duel
//	board:
//	  width: 16
//	  height: 17
//	  cells:
//	    "3,4": { elevation: 1, terrain: [{ kind: light_woods }] }
//	players:
//	  - name: alice
//	    units:
//	      - { name: Hunchback, tonnage: 50, walkMP: 4, heatSinks: 13 }
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/geo"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
	"gopkg.in/yaml.v3"
)

// ErrUnknownPlayer is returned by Player when the roster has no such name.
var ErrUnknownPlayer = errors.New("player not in scenario")

// Namespace seeds the ids given to players and units the file leaves blank.
var Namespace = uuid.MustParse("5b3c1f0e-8f52-4c1b-9a36-7d0c2d4e9a11")

// Cell overrides one hex of an otherwise clear, flat board.
type Cell struct {
	Elevation int           `yaml:"elevation"`
	Terrain   []hex.Terrain `yaml:"terrain"`
}

// Board is the map section of a scenario. Cells are keyed by "q,r".
type Board struct {
	Width  int             `yaml:"width"`
	Height int             `yaml:"height"`
	Cells  map[string]Cell `yaml:"cells"`
}

// Player is one roster entry.
type Player struct {
	ID    uuid.UUID          `yaml:"id"`
	Name  string             `yaml:"name"`
	Units []command.UnitData `yaml:"units"`
}

// Scenario is a parsed scenario file.
type Scenario struct {
	Name    string   `yaml:"name"`
	Board   Board    `yaml:"board"`
	Players []Player `yaml:"players"`
}

// Load reads and parses the file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario and fills in missing ids. Ids derived from names
// are stable, so every process loading the same file agrees on them.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error parsing scenario: %w", err)
	}
	if s.Board.Width <= 0 || s.Board.Height <= 0 {
		return nil, fmt.Errorf("board must have a positive size, got %dx%d", s.Board.Width, s.Board.Height)
	}

	seen := make(map[string]bool, len(s.Players))
	for i := range s.Players {
		p := &s.Players[i]
		if p.Name == "" {
			return nil, fmt.Errorf("player %d has no name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate player %q", p.Name)
		}
		seen[p.Name] = true

		if p.ID == uuid.Nil {
			p.ID = uuid.NewSHA1(Namespace, []byte(s.Name+"/"+p.Name))
		}
		for j := range p.Units {
			u := &p.Units[j]
			if u.ID == uuid.Nil {
				u.ID = uuid.NewSHA1(p.ID, []byte(fmt.Sprintf("%d/%s", j, u.Name)))
			}
			for k := range u.Weapons {
				w := &u.Weapons[k]
				if w.ID == uuid.Nil {
					w.ID = uuid.NewSHA1(u.ID, []byte(fmt.Sprintf("%d/%s", k, w.Name)))
				}
			}
		}
	}
	return &s, nil
}

// BuildBoard creates the board with every cell override applied.
func (s *Scenario) BuildBoard() (*hex.Board, error) {
	b := hex.NewBoard(s.Board.Width, s.Board.Height)

	keys := make([]string, 0, len(s.Board.Cells))
	for k := range s.Board.Cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		c, err := geo.CoordinateFromString(k)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", k, err)
		}
		if !b.Contains(c) {
			return nil, fmt.Errorf("cell %q is off the %dx%d board", k, s.Board.Width, s.Board.Height)
		}
		cell := s.Board.Cells[k]
		b.Set(c, cell.Elevation, cell.Terrain...)
	}
	return b, nil
}

// Player returns the roster entry with the given name.
func (s *Scenario) Player(name string) (Player, error) {
	for _, p := range s.Players {
		if p.Name == name {
			return p, nil
		}
	}
	return Player{}, fmt.Errorf("%w: %q", ErrUnknownPlayer, name)
}

// Join is the command that brings p into a game.
func (p Player) Join() command.Join {
	return command.Join{PlayerID: p.ID, Name: p.Name, Units: p.Units}
}
