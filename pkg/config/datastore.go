package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig holds the runtime settings of the spreadsheet service.
type ServerConfig struct {
	ListenAddress string
	// DebounceMillis is the quiet period the sync coordinator waits after
	// the last edit before flushing to the store.
	DebounceMillis int
}

type configStore struct {
	Server     ServerConfig
	DBFilename string
}

type Datastore struct {
	Filename string
	Store    configStore
}

// Save writes the current config out to a toml file.
func (c *Datastore) Save() error {
	b, err := toml.Marshal(c.Store)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Filename, b, 0644)
}

// Load reads the current config from a toml file.
func (c *Datastore) Load() error {
	b, err := os.ReadFile(c.Filename)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, &c.Store)
}

func NewDatastore(filename string) (*Datastore, error) {
	c := &Datastore{
		Filename: filename,
	}
	if err := c.Load(); err != nil {
		if os.IsNotExist(err) {
			if err := c.Save(); err != nil {
				return nil, err
			}
		}
	}
	// Set some defaults
	if c.Store.DBFilename == "" {
		c.Store.DBFilename = "minitab.sqlite3"
	}
	if c.Store.Server.ListenAddress == "" {
		c.Store.Server.ListenAddress = ":8080"
	}
	if c.Store.Server.DebounceMillis <= 0 {
		c.Store.Server.DebounceMillis = 750
	}
	return c, nil
}
