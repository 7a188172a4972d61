package config

import (
	"fmt"
	"github.com/jypelle/navlink/internal/srv/checkpoint"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"sync"
)

// ServerState is a small key/value store persisted as a yaml map. Every Put
// is written through, so a value survives an abrupt power cut.
type ServerState struct {
	lock                  sync.RWMutex
	values                map[string]string
	completeStateFilename string
}

func NewServerState(completeStateFilename string) (*ServerState, error) {
	serverState := &ServerState{
		values:                make(map[string]string),
		completeStateFilename: completeStateFilename,
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err == nil {
		// Interpret state file
		err = yaml.Unmarshal(rawConfig, &serverState.values)
		if err != nil {
			return nil, fmt.Errorf("unable to interpret state file %s: %w", completeStateFilename, err)
		}
		if serverState.values == nil {
			serverState.values = make(map[string]string)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("unable to read state file %s: %w", completeStateFilename, err)
	} else {
		logrus.Infof("No state file yet: %s", completeStateFilename)
	}

	return serverState, nil
}

func (ss *ServerState) Get(key string) ([]byte, error) {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	value, ok := ss.values[key]
	if !ok {
		return nil, checkpoint.ErrNotFound
	}
	return []byte(value), nil
}

func (ss *ServerState) Put(key string, value []byte) error {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	previous, existed := ss.values[key]
	ss.values[key] = string(value)
	if err := ss.save(); err != nil {
		if existed {
			ss.values[key] = previous
		} else {
			delete(ss.values, key)
		}
		return err
	}
	return nil
}

func (ss *ServerState) save() error {
	logrus.Debugf("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(ss.values)
	if err != nil {
		return fmt.Errorf("unable to serialize state file: %w", err)
	}
	tmpFilename := ss.completeStateFilename + ".tmp"
	f, err := os.OpenFile(tmpFilename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0660)
	if err != nil {
		return fmt.Errorf("unable to save state file: %w", err)
	}
	if _, err = f.Write(rawConfig); err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpFilename)
		return fmt.Errorf("unable to save state file: %w", err)
	}
	return os.Rename(tmpFilename, ss.completeStateFilename)
}
