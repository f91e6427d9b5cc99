package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/usercontext"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// RateLimitIdentifier returns the identifier the per-endpoint rate limiter
// buckets on: the original client IP from X-Forwarded-For when the request
// came through a proxy, the socket address otherwise.
func RateLimitIdentifier(c *fiber.Ctx) string {
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		if parts := strings.Split(xff, ","); len(parts) > 0 {
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	return c.IP()
}

// GetClientIP determines the actual client IP address considering proxies.
// Returns both IPv4 and IPv6 addresses if available
func GetClientIP(c *fiber.Ctx) (string, string) {
	ipv4 := ""
	ipv6 := ""

	// X-Forwarded-For can contain a list of IPs - the first one is the original client IP
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		xffList := strings.Split(xff, ",")
		if len(xffList) > 0 {
			clientIP := strings.TrimSpace(xffList[0])

			if strings.Contains(clientIP, ":") {
				ipv6 = clientIP
				for i := 1; i < len(xffList); i++ {
					ip := strings.TrimSpace(xffList[i])
					if !strings.Contains(ip, ":") {
						ipv4 = ip
						break
					}
				}
			} else {
				ipv4 = clientIP
				for i := 1; i < len(xffList); i++ {
					ip := strings.TrimSpace(xffList[i])
					if strings.Contains(ip, ":") {
						ipv6 = ip
						break
					}
				}
			}

			if ipv4 != "" || ipv6 != "" {
				return ipv4, ipv6
			}
		}
	}

	ipAddr := c.IP()

	// For ::ffff: IPv4-mapped-IPv6 addresses
	if strings.Contains(ipAddr, ":") {
		if strings.Contains(ipAddr, ".") && strings.HasPrefix(ipAddr, "::ffff:") {
			ipv4 = strings.TrimPrefix(ipAddr, "::ffff:")
		} else {
			ipv6 = ipAddr
		}
	} else {
		ipv4 = ipAddr
	}

	return ipv4, ipv6
}
