package models

// Shop is the singleton storefront profile.
type Shop struct {
	Name                 string `json:"name"`
	Username             string `json:"username"`
	Description          string `json:"description"`
	Logo                 string `json:"logo,omitempty"`
	TelegramToken        string `json:"telegramToken,omitempty"`
	TelegramChannelID    string `json:"telegramChannelId,omitempty"`
	InstagramID          string `json:"instagramId,omitempty"`
	IsInstagramConnected bool   `json:"isInstagramConnected,omitempty"`
}

// DefaultShop is installed when no shop document has been saved yet.
func DefaultShop() Shop {
	return Shop{
		Name:        "My AI Fashion Shop",
		Username:    "shop_bot",
		Description: "AI-powered fashion boutique.",
	}
}

// HasBotToken reports whether direct publishing is configured.
func (s Shop) HasBotToken() bool {
	return s.TelegramToken != ""
}

// UserProfile is the singleton operator profile.
type UserProfile struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Avatar       string `json:"avatar,omitempty"`
	IsRegistered bool   `json:"isRegistered"`
}

// DefaultUser is installed until the operator registers.
func DefaultUser() UserProfile {
	return UserProfile{ID: "1", FullName: "New Merchant"}
}
