package schedule

import (
	"fmt"
	"sync"
	"time"
)

// Config изменяемые настройки расписания клиники. Принадлежит планировщику,
// cutoff gate и админ-команды читают и меняют её только через методы —
// никакого общего глобального конфига.
type Config struct {
	mu      sync.RWMutex
	enabled bool
	hour    int
	minute  int
	loc     *time.Location
}

func NewConfig(enabled bool, hour, minute int, loc *time.Location) *Config {
	return &Config{
		enabled: enabled,
		hour:    hour,
		minute:  minute,
		loc:     loc,
	}
}

// Enabled включена ли отсечка по времени
func (c *Config) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled включает или выключает отсечку
func (c *Config) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Cutoff возвращает час и минуту отсечки
func (c *Config) Cutoff() (hour, minute int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hour, c.minute
}

// SetCutoff меняет время отсечки. Действует сразу для проверок гейта,
// перенос задачи сводки делает планировщик.
func (c *Config) SetCutoff(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid cutoff time %02d:%02d", hour, minute)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.hour = hour
	c.minute = minute
	return nil
}

// Location часовой пояс клиники
func (c *Config) Location() *time.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loc
}

// CutoffString время отсечки в формате HH:MM
func (c *Config) CutoffString() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%02d:%02d", c.hour, c.minute)
}
