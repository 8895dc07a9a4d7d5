package mailer

import (
	"fmt"
	"net"
	"strings"
)

// blockedHosts are obvious localhost spellings rejected before any DNS work.
var blockedHosts = []string{
	"localhost",
	"0.0.0.0",
	"127.0.0.1",
	"::1",
	"[::1]",
	"ip6-localhost",
	"ip6-loopback",
}

// reservedBlocks covers RFC 1918 private ranges, loopback, link-local
// (including the cloud metadata address), IPv6 ULA and other
// non-routable space a tenant-supplied SMTP host must never resolve to.
var reservedBlocks = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
	"ff00::/8",
	"0.0.0.0/8",
	"100.64.0.0/10",
	"192.0.0.0/24",
	"192.0.2.0/24",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"224.0.0.0/4",
	"240.0.0.0/4",
}

// ValidateSMTPHost blocks SSRF via tenant-controlled SMTP settings: the
// hostname is resolved and every resulting IP must be public. Validation
// runs on every send, not just at provisioning time, so a DNS record that
// later flips to an internal address is still caught.
func ValidateSMTPHost(host string) error {
	host = strings.ToLower(strings.TrimSpace(host))

	for _, blocked := range blockedHosts {
		if host == blocked {
			return fmt.Errorf("security violation: localhost connections forbidden")
		}
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("hostname resolution failed")
	}
	if len(ips) == 0 {
		return fmt.Errorf("hostname resolves to no IP addresses")
	}

	for _, ip := range ips {
		if err := validatePublicIP(ip); err != nil {
			return fmt.Errorf("security violation: connection to private network blocked")
		}
	}
	return nil
}

func validatePublicIP(ip net.IP) error {
	if ip.IsLoopback() {
		return fmt.Errorf("loopback address")
	}
	if ip.IsPrivate() {
		return fmt.Errorf("private address")
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("unspecified address")
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("link-local address")
	}

	for _, block := range reservedBlocks {
		_, cidr, err := net.ParseCIDR(block)
		if err != nil {
			continue
		}
		if cidr.Contains(ip) {
			return fmt.Errorf("blocked CIDR range: %s", block)
		}
	}
	return nil
}

// ValidateSMTPPort restricts tenant SMTP ports to the standard submission
// ports so the relay cannot be steered at arbitrary internal services.
func ValidateSMTPPort(port int) error {
	switch port {
	case 25, 465, 587, 2525:
		return nil
	}
	return fmt.Errorf("non-standard SMTP port blocked")
}

// ValidateSMTPConfig validates both host and port.
func ValidateSMTPConfig(host string, port int) error {
	if err := ValidateSMTPHost(host); err != nil {
		return fmt.Errorf("invalid SMTP host: %w", err)
	}
	if err := ValidateSMTPPort(port); err != nil {
		return fmt.Errorf("invalid SMTP port: %w", err)
	}
	return nil
}
