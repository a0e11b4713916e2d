package models

// ObfuscatePassword shifts every byte of a password up by one. It only keeps
// passwords from being stored as plain text and is not encryption.
func ObfuscatePassword(password string) string {
	b := []byte(password)
	for i := range b {
		b[i]++
	}
	return string(b)
}

// RevealPassword reverses ObfuscatePassword
func RevealPassword(stored string) string {
	b := []byte(stored)
	for i := range b {
		b[i]--
	}
	return string(b)
}
