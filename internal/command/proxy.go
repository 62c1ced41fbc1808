// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"net/url"
	"strings"
)

// ProxyConfig is a proxy URL broken into the fields the JVM understands.
// Empty fields are absent.
type ProxyConfig struct {
	Scheme   string
	Host     string
	Port     string
	User     string
	Password string
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// proxySchemes are the JVM option namespaces every proxy is mirrored onto.
var proxySchemes = []string{"http", "https"}

// ParseProxy parses a proxy URL. A missing port falls back to the scheme
// default.
func ParseProxy(raw string) (ProxyConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ProxyConfig{}, ErrProxyInvalid(err)
	}

	p := ProxyConfig{
		Scheme: strings.ToLower(u.Scheme),
		Host:   u.Hostname(),
		Port:   u.Port(),
	}
	if p.Port == "" && p.Host != "" {
		p.Port = defaultPorts[p.Scheme]
	}
	if u.User != nil {
		p.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			p.Password = pw
		}
	}
	return p, nil
}

// Flags returns JVM system property flags for the proxy.
//
// Settings are emitted for the http namespace, then https, regardless of the
// proxy's own scheme, each in host, port, user, password order.
func (p ProxyConfig) Flags() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"Host", p.Host},
		{"Port", p.Port},
		{"User", p.User},
		{"Password", p.Password},
	}

	var flags []string
	for _, scheme := range proxySchemes {
		for _, f := range fields {
			if f.value == "" {
				continue
			}
			flags = append(flags, "-D"+scheme+".proxy"+f.name+"="+f.value)
		}
	}
	return flags
}
