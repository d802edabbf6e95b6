// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package kernel

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lassandro/divine/pkg/encoding"
	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/keyboard"
	"github.com/lassandro/divine/pkg/sched"
)

var ErrConfig = errors.New("kernel: invalid config")

// Config holds the startup constants of the kernel core.
type Config struct {
	HeapBase  uint32 `yaml:"heapBase"`
	HeapSize  uint32 `yaml:"heapSize"`
	MaxTasks  int    `yaml:"maxTasks"`
	StackSize uint32 `yaml:"stackSize"`
	KeyBuffer int    `yaml:"keyBuffer"`
}

func DefaultConfig() Config {
	return Config{
		HeapBase:  heap.DefaultBase,
		HeapSize:  heap.DefaultSize,
		MaxTasks:  sched.DefaultCapacity,
		StackSize: sched.DefaultStackSize,
		KeyBuffer: keyboard.DefaultBufferSize,
	}
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.HeapSize <= heap.HeaderSize:
		return fmt.Errorf("%w: heapSize %d too small", ErrConfig, c.HeapSize)
	case uint64(c.HeapBase)+uint64(c.HeapSize) > 1<<32:
		return fmt.Errorf("%w: heap exceeds 32-bit address space", ErrConfig)
	case c.MaxTasks <= 0:
		return fmt.Errorf("%w: maxTasks must be positive", ErrConfig)
	case c.StackSize == 0:
		return fmt.Errorf("%w: stackSize must be positive", ErrConfig)
	case c.KeyBuffer <= 0 || !encoding.IsPowerOfTwo(uint32(c.KeyBuffer)):
		return fmt.Errorf("%w: keyBuffer must be a power of 2", ErrConfig)
	}

	return nil
}
