// Package config resolves the splitdns CLI surface into a proxy.Config,
// per spec.md §6 External interfaces: flag parsing, an optional YAML
// override file in the teacher's cmd/dnsscience-grpc style, and loading
// the gzip-compressed hostname allowlist.
package config

import (
	"bufio"
	"compress/gzip"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dnsscience/splitdns/internal/dnswire"
	"github.com/dnsscience/splitdns/internal/hostname"
	"github.com/dnsscience/splitdns/internal/logging"
	"github.com/dnsscience/splitdns/internal/netutil"
	"github.com/dnsscience/splitdns/internal/proxy"
)

// DefaultListenHost/Port and DefaultUpstreamHost/Port are spec.md §6's
// documented CLI defaults.
const (
	DefaultListenHost   = "127.0.0.1"
	DefaultListenPort   = 8053
	DefaultUpstreamHost = "127.0.0.1"
	DefaultUpstreamPort = 65053
	DefaultTimeout      = 5
	DefaultLogLevel     = "info"
	DefaultLogName      = "DNS"
)

// FileOverrides is the optional YAML configuration file, matching any
// flag the CLI exposes; a zero value of each field means "not set",
// mirroring the teacher's cmd/dnsscience-grpc/config.go precedence
// scheme (flags override file, file overrides built-in defaults).
type FileOverrides struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	IPv6Gateway  string `yaml:"ipv6_gateway"`
	DNSHost      string `yaml:"dns_host"`
	DNSPort      int    `yaml:"dns_port"`
	Timeout      int    `yaml:"timeout"`
	LogLevel     string `yaml:"log_level"`
	LogName      string `yaml:"log_name"`
}

// LoadFile reads and parses an optional YAML override file.
func LoadFile(path string) (*FileOverrides, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var f FileOverrides
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &f, nil
}

// Flags holds the raw, unresolved CLI surface described in spec.md §6.
type Flags struct {
	Gateway     string // positional
	HostsFile   string // positional, optional
	ConfigFile  string
	Host        string
	Port        int
	IPv6Gateway string
	DNSHost     string
	DNSPort     int
	Timeout     int
	LogLevel    string
	LogName     string
}

// ParseArgs parses args (excluding the program name) into Flags, in the
// flag.FlagSet style the teacher's cmd/ binaries use.
func ParseArgs(progName string, args []string) (*Flags, error) {
	fs := flag.NewFlagSet(progName, flag.ContinueOnError)

	f := &Flags{}
	fs.StringVar(&f.ConfigFile, "config", "", "Path to YAML config file")
	fs.StringVar(&f.Host, "host", "", "Listen host (overrides config)")
	fs.IntVar(&f.Port, "port", 0, "Listen port (overrides config)")
	fs.StringVar(&f.IPv6Gateway, "ipv6-gateway", "", "IPv6 policy gateway address (optional)")
	fs.StringVar(&f.DNSHost, "dns-host", "", "Upstream resolver host (overrides config)")
	fs.IntVar(&f.DNSPort, "dns-port", 0, "Upstream resolver port (overrides config)")
	fs.IntVar(&f.Timeout, "timeout", 0, "Pending-query timeout in seconds (overrides config)")
	fs.StringVar(&f.LogLevel, "log-level", "", "critical|error|warning|info|debug (overrides config)")
	fs.StringVar(&f.LogName, "log-name", "", "Logger name prefix (overrides config)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	positional := fs.Args()
	if len(positional) < 1 {
		return nil, fmt.Errorf("config: missing required positional argument \"gateway\"")
	}
	f.Gateway = positional[0]
	if len(positional) >= 2 {
		f.HostsFile = positional[1]
	}
	return f, nil
}

// Resolve merges flags over an optional file's settings over built-in
// defaults, parses the hostname allowlist if given, and produces a
// ready-to-use proxy.Config plus a configured Logger.
func Resolve(f *Flags) (proxy.Config, *logging.Logger, error) {
	var file *FileOverrides
	if f.ConfigFile != "" {
		loaded, err := LoadFile(f.ConfigFile)
		if err != nil {
			return proxy.Config{}, nil, err
		}
		file = loaded
	}

	host := firstNonEmpty(f.Host, fileStr(file, func(c *FileOverrides) string { return c.Host }), DefaultListenHost)
	port := firstNonZero(f.Port, fileInt(file, func(c *FileOverrides) int { return c.Port }), DefaultListenPort)
	dnsHost := firstNonEmpty(f.DNSHost, fileStr(file, func(c *FileOverrides) string { return c.DNSHost }), DefaultUpstreamHost)
	dnsPort := firstNonZero(f.DNSPort, fileInt(file, func(c *FileOverrides) int { return c.DNSPort }), DefaultUpstreamPort)
	ipv6Gateway := firstNonEmpty(f.IPv6Gateway, fileStr(file, func(c *FileOverrides) string { return c.IPv6Gateway }), "")
	timeoutSecs := firstNonZero(f.Timeout, fileInt(file, func(c *FileOverrides) int { return c.Timeout }), DefaultTimeout)
	logLevel := firstNonEmpty(f.LogLevel, fileStr(file, func(c *FileOverrides) string { return c.LogLevel }), DefaultLogLevel)
	logName := firstNonEmpty(f.LogName, fileStr(file, func(c *FileOverrides) string { return c.LogName }), DefaultLogName)

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return proxy.Config{}, nil, err
	}
	log := logging.Default(logName, level)

	gatewayV4, err := netutil.IPv4.TextToInt(f.Gateway)
	if err != nil {
		return proxy.Config{}, nil, fmt.Errorf("config: gateway %q: %w", f.Gateway, err)
	}

	var gatewayV6 *netutil.Uint128
	if ipv6Gateway != "" {
		v6, err := netutil.IPv6.TextToInt(ipv6Gateway)
		if err != nil {
			return proxy.Config{}, nil, fmt.Errorf("config: ipv6-gateway %q: %w", ipv6Gateway, err)
		}
		gatewayV6 = &v6
	}

	allowlist := hostname.NewSet(nil)
	if f.HostsFile != "" {
		names, err := LoadHostsFile(f.HostsFile)
		if err != nil {
			return proxy.Config{}, nil, err
		}
		allowlist = hostname.NewSet(names)
	}

	listenAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return proxy.Config{}, nil, fmt.Errorf("config: listen address %s:%d: %w", host, port, err)
	}
	upstreamAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", dnsHost, dnsPort))
	if err != nil {
		return proxy.Config{}, nil, fmt.Errorf("config: upstream address %s:%d: %w", dnsHost, dnsPort, err)
	}

	cfg := proxy.Config{
		ListenAddr:   listenAddr,
		UpstreamAddr: upstreamAddr,
		GatewayV4:    gatewayV4,
		GatewayV6:    gatewayV6,
		Timeout:      time.Duration(timeoutSecs) * time.Second,
		BufferSize:   proxy.DefaultBufferSize,
		Allowlist:    allowlist,
	}
	return cfg, log, nil
}

// LoadHostsFile reads a gzip-compressed, newline-separated host list, per
// spec.md §6's "hostsfile" positional argument. Empty lines are skipped.
func LoadHostsFile(path string) ([]dnswire.QName, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening hosts file %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: decompressing hosts file %s: %w", path, err)
	}
	defer gz.Close()

	var names []dnswire.QName
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		names = append(names, hostname.ParseName(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading hosts file %s: %w", path, err)
	}
	return names, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func fileStr(f *FileOverrides, get func(*FileOverrides) string) string {
	if f == nil {
		return ""
	}
	return get(f)
}

func fileInt(f *FileOverrides, get func(*FileOverrides) int) int {
	if f == nil {
		return 0
	}
	return get(f)
}
