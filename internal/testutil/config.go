package testutil

import "os"

const (
	// Environment variables that override the fake credentials, handy when
	// pointing a test at a real sandbox.
	TestNaverClientID     = "TEST_NAVER_CLIENT_ID"
	TestNaverClientSecret = "TEST_NAVER_CLIENT_SECRET"
	TestDomeggookKey      = "TEST_DOMEGGOOK_KEY"
	TestKakaoToken        = "TEST_KAKAO_TOKEN"

	DefaultTestID     = "test-client-id"
	DefaultTestSecret = "test-client-secret"
	DefaultTestKey    = "test-key"
	DefaultTestToken  = "test-token"
)

// GetTestToken returns a test token from environment variable or default
func GetTestToken(envVar, defaultValue string) string {
	if token := os.Getenv(envVar); token != "" {
		return token
	}
	return defaultValue
}

// NaverCredentials returns the client id and secret the fakes accept.
func NaverCredentials() (string, string) {
	return GetTestToken(TestNaverClientID, DefaultTestID), GetTestToken(TestNaverClientSecret, DefaultTestSecret)
}

// DomeggookKey returns the API key DomeggookFake accepts.
func DomeggookKey() string {
	return GetTestToken(TestDomeggookKey, DefaultTestKey)
}

// KakaoToken returns the access token KakaoFake accepts.
func KakaoToken() string {
	return GetTestToken(TestKakaoToken, DefaultTestToken)
}
