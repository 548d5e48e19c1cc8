package schedule

import "time"

// Gate решает можно ли начинать новое бронирование.
// Чистый предикат над локальным временем клиники: при включённой отсечке
// бронирование разрешено строго до неё, при выключенной — всегда.
type Gate struct {
	cfg *Config
	now func() time.Time
}

func NewGate(cfg *Config) *Gate {
	return &Gate{cfg: cfg, now: time.Now}
}

// NewGateWithClock создаёт гейт с подменяемыми часами (для тестов)
func NewGateWithClock(cfg *Config, now func() time.Time) *Gate {
	return &Gate{cfg: cfg, now: now}
}

// Allowed можно ли сейчас начинать бронирование
func (g *Gate) Allowed() bool {
	if !g.cfg.Enabled() {
		return true
	}

	now := g.now().In(g.cfg.Location())
	hour, minute := g.cfg.Cutoff()

	return now.Hour()*60+now.Minute() < hour*60+minute
}
