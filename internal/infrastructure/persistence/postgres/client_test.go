package postgres

import (
	"strings"
	"testing"

	"github.com/onedollarbanana/FictionForge-sub002/internal/config"
)

func TestDataSourceName(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "explicit ssl mode",
			cfg:  config.PostgresConfig{Host: "db", Port: 5432, User: "ff", Password: "secret", Database: "fiction", SSLMode: "require"},
			want: "host=db port=5432 user=ff password=secret dbname=fiction sslmode=require application_name=fictionforge",
		},
		{
			name: "ssl mode defaults to disable",
			cfg:  config.PostgresConfig{Host: "localhost", Port: 5433, User: "ff", Database: "fiction"},
			want: "sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dataSourceName(&tt.cfg); !strings.Contains(got, tt.want) {
				t.Errorf("dataSourceName() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
