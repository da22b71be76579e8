package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	chainDomain "github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/business/status/app"
	"github.com/fd1az/bridge-status/internal/config"
)

func TestInitialLayer(t *testing.T) {
	cfg := &config.Config{Dashboard: config.DashboardConfig{DefaultLayer: "two"}}

	tests := []struct {
		name    string
		flag    string
		want    chainDomain.Layer
		wantErr bool
	}{
		{name: "config default", want: chainDomain.LayerTwo},
		{name: "flag wins", flag: "L3", want: chainDomain.LayerThree},
		{name: "numeric flag", flag: "3", want: chainDomain.LayerThree},
		{name: "bad flag", flag: "four", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := initialLayer(&rootOptions{layer: tt.flag}, cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("layer = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "bridgestatus dev") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDescribeLayer(t *testing.T) {
	reg := app.Registry{
		Descriptors: make([]app.Descriptor, 13),
		Errors:      []error{errors.New("block fee unavailable")},
	}
	if got := describeLayer(chainDomain.LayerThree, reg); got != "L3: 13 indicators, 1 unavailable" {
		t.Errorf("describeLayer = %q", got)
	}
	if got := describeLayer(chainDomain.LayerTwo, app.Registry{}); got != "L2: 0 indicators" {
		t.Errorf("describeLayer = %q", got)
	}
}
