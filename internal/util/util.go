package util

import (
	"cmp"
	"log/slog"
	"sort"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

func Assert(cond bool, msg string) {
	ignoreAsserts := viper.GetBool("ignore-asserts")
	if !ignoreAsserts && !cond {
		panic(msg)
	}
}

func ToPointer[T any](val T) *T {
	return &val
}

func SafeDeref[T any](val *T) T {
	if val == nil {
		var zero T
		return zero
	}
	return *val
}

func OrderedRange[K cmp.Ordered, V any](m map[K]V) []V {
	keys := make([]K, len(m))

	i := 0
	for key := range m { // nosemgrep: range-over-map
		keys[i] = key
		i++
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})

	sorted := make([]V, len(keys))
	for i, key := range keys {
		sorted[i] = m[key]
	}

	return sorted
}

func DeferAndLog(f func() error) {
	if err := f(); err != nil {
		slog.Warn("defer failed", "err", err)
	}
}

func ParseCron(cronExp string) (cron.Schedule, error) {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(cronExp)
}
