package services

import (
	"fmt"
	"strings"
)

const MinPasswordLen = 6

// StudentProfileComplete: delivery address and phone must both be present.
func StudentProfileComplete(deliveryAddress, phone string) bool {
	return strings.TrimSpace(deliveryAddress) != "" && strings.TrimSpace(phone) != ""
}

// KantinProfileComplete: tenant name, owner name, owner phone and operating
// hours must all be present.
func KantinProfileComplete(tenantName, ownerName, ownerPhone, operatingHours string) bool {
	return strings.TrimSpace(tenantName) != "" &&
		strings.TrimSpace(ownerName) != "" &&
		strings.TrimSpace(ownerPhone) != "" &&
		strings.TrimSpace(operatingHours) != ""
}

// ValidateNewPassword is the client-side fast-fail before the change-password
// request; the server stays the final authority.
func ValidateNewPassword(newPassword, confirmation string) error {
	if len(newPassword) < MinPasswordLen {
		return fmt.Errorf("password baru minimal %d karakter", MinPasswordLen)
	}
	if newPassword != confirmation {
		return fmt.Errorf("password baru dan konfirmasi tidak cocok")
	}
	return nil
}
