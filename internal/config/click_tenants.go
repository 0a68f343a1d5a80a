package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ClickTenant is one Click-enabled tenant backend.
type ClickTenant struct {
	TenantID   string `mapstructure:"tenant_id"`
	ServiceID  string `mapstructure:"service_id"`
	MerchantID string `mapstructure:"merchant_id"`
	SecretKey  string `mapstructure:"secret_key"`
	WebhookURL string `mapstructure:"webhook_url"`
	Enabled    bool   `mapstructure:"enabled"`
}

// ClickTenants maps Click service ids and tenant ids to tenant settings.
type ClickTenants struct {
	byService map[string]ClickTenant
	byTenant  map[string]ClickTenant
}

func NewClickTenants(list []ClickTenant) (ClickTenants, error) {
	t := ClickTenants{
		byService: make(map[string]ClickTenant, len(list)),
		byTenant:  make(map[string]ClickTenant, len(list)),
	}
	for _, ct := range list {
		ct.ServiceID = strings.TrimSpace(ct.ServiceID)
		ct.TenantID = strings.TrimSpace(ct.TenantID)
		if ct.ServiceID == "" || ct.TenantID == "" {
			return ClickTenants{}, fmt.Errorf("click tenant requires tenant_id and service_id")
		}
		if _, dup := t.byService[ct.ServiceID]; dup {
			return ClickTenants{}, fmt.Errorf("duplicate click service_id %s", ct.ServiceID)
		}
		if _, dup := t.byTenant[ct.TenantID]; dup {
			return ClickTenants{}, fmt.Errorf("duplicate click tenant_id %s", ct.TenantID)
		}
		t.byService[ct.ServiceID] = ct
		t.byTenant[ct.TenantID] = ct
	}
	return t, nil
}

func (t ClickTenants) ByServiceID(serviceID string) (ClickTenant, bool) {
	ct, ok := t.byService[strings.TrimSpace(serviceID)]
	return ct, ok
}

func (t ClickTenants) ByTenantID(tenantID string) (ClickTenant, bool) {
	ct, ok := t.byTenant[tenantID]
	return ct, ok
}

func (t ClickTenants) Len() int {
	return len(t.byService)
}

// LoadClickTenants reads a YAML or JSON file with a top-level "tenants" list.
func LoadClickTenants(path string) (ClickTenants, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return ClickTenants{}, fmt.Errorf("read click tenants %s: %w", path, err)
	}
	var raw struct {
		Tenants []ClickTenant `mapstructure:"tenants"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return ClickTenants{}, fmt.Errorf("decode click tenants: %w", err)
	}
	return NewClickTenants(raw.Tenants)
}
