package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock user repository for testing
type mockUserRepository struct {
	passwords   map[string]string // email -> password hash
	userIDs     map[string]string // email -> userID
	usersByID   map[int64]*User
	returnError error
}

func newMockUserRepository() *mockUserRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)

	return &mockUserRepository{
		passwords: map[string]string{
			"sari@dokterku.id": string(hashedPassword),
			"budi@dokterku.id": string(hashedPassword),
			"maya@dokterku.id": string(hashedPassword),
		},
		userIDs: map[string]string{
			"sari@dokterku.id": "1",
			"budi@dokterku.id": "2",
			"maya@dokterku.id": "3",
		},
		usersByID: map[int64]*User{
			1: {ID: 1, Email: "sari@dokterku.id", Role: RolePetugas, Permissions: []string{}},
			2: {ID: 2, Email: "budi@dokterku.id", Role: RoleBendahara, Permissions: []string{PermValidateTransactions}},
			3: {ID: 3, Email: "maya@dokterku.id", Role: RoleManajer, Permissions: []string{PermValidateTransactions, PermApproveHighValue, PermManager}},
		},
	}
}

func (m *mockUserRepository) GetPasswordForEmail(email string) (string, string, error) {
	if m.returnError != nil {
		return "", "", m.returnError
	}
	hash, exists := m.passwords[email]
	if !exists {
		return "", "", errors.New("user not found")
	}
	return hash, m.userIDs[email], nil
}

func (m *mockUserRepository) GetUserWithPermissions(userID int64) (*User, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	user, exists := m.usersByID[userID]
	if !exists {
		return nil, errors.New("user not found")
	}
	return user, nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		svc      *Service
		mockRepo *mockUserRepository
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockUserRepository()
		tokenGen = NewJWTTokenGenerator("access-secret", "refresh-secret")
		svc = NewService(mockRepo, tokenGen)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("with valid credentials", func() {
			ginkgo.It("should return a token pair", func() {
				tokens, err := svc.Authenticate(LoginDTO{
					Email:    "budi@dokterku.id",
					Password: "rahasia123",
				})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.Equal(tokens.RefreshToken))
			})

			ginkgo.It("should embed the user identity in the access token", func() {
				tokens, err := svc.Authenticate(LoginDTO{
					Email:    "budi@dokterku.id",
					Password: "rahasia123",
				})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				claims, err := svc.ValidateAccessToken(tokens.AccessToken)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.UserID).To(gomega.Equal("2"))
				gomega.Expect(claims.Email).To(gomega.Equal("budi@dokterku.id"))
			})
		})

		ginkgo.Context("with a wrong password", func() {
			ginkgo.It("should return invalid credentials", func() {
				_, err := svc.Authenticate(LoginDTO{
					Email:    "budi@dokterku.id",
					Password: "salah",
				})

				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
			})
		})

		ginkgo.Context("with an unknown user", func() {
			ginkgo.It("should return the same invalid credentials error", func() {
				_, err := svc.Authenticate(LoginDTO{
					Email:    "tidakada@dokterku.id",
					Password: "rahasia123",
				})

				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
			})
		})

		ginkgo.Context("with an invalid payload", func() {
			ginkgo.It("should reject a missing email", func() {
				_, err := svc.Authenticate(LoginDTO{Password: "rahasia123"})

				gomega.Expect(err).To(gomega.HaveOccurred())
			})

			ginkgo.It("should reject a malformed email", func() {
				_, err := svc.Authenticate(LoginDTO{Email: "bukan-email", Password: "rahasia123"})

				gomega.Expect(err).To(gomega.HaveOccurred())
			})

			ginkgo.It("should reject a missing password", func() {
				_, err := svc.Authenticate(LoginDTO{Email: "budi@dokterku.id"})

				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		ginkgo.It("should issue a fresh pair from a valid refresh token", func() {
			tokens, err := svc.Authenticate(LoginDTO{
				Email:    "maya@dokterku.id",
				Password: "rahasia123",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			refreshed, err := svc.RefreshTokens(tokens.RefreshToken)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(refreshed.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(refreshed.RefreshToken).ToNot(gomega.BeEmpty())

			claims, err := svc.ValidateAccessToken(refreshed.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("3"))
		})

		ginkgo.It("should reject a garbage token", func() {
			_, err := svc.RefreshTokens("not.a.token")

			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})
	})

	ginkgo.Describe("ValidateAccessToken", func() {
		ginkgo.It("should reject an expired token", func() {
			shortLived := NewJWTTokenGenerator("access-secret", "refresh-secret")
			shortLived.AccessTokenTTL = -time.Minute
			token, err := shortLived.GenerateAccessToken("2", "budi@dokterku.id")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = svc.ValidateAccessToken(token)

			gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
		})

		ginkgo.It("should reject a token signed with a different secret", func() {
			other := NewJWTTokenGenerator("someone-elses-secret", "refresh-secret")
			token, err := other.GenerateAccessToken("2", "budi@dokterku.id")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = svc.ValidateAccessToken(token)

			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})
	})

	ginkgo.Describe("GetUserWithPermissions", func() {
		ginkgo.It("should load the user with their permission names", func() {
			user, err := svc.GetUserWithPermissions(3)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.Role).To(gomega.Equal(RoleManajer))
			gomega.Expect(user.CanValidateTransactions()).To(gomega.BeTrue())
			gomega.Expect(user.CanApproveHighValue()).To(gomega.BeTrue())
		})

		ginkgo.It("should propagate repository errors", func() {
			mockRepo.returnError = errors.New("db down")

			_, err := svc.GetUserWithPermissions(3)

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("HashPassword", func() {
		ginkgo.It("should produce a hash that verifies against the password", func() {
			hash, err := svc.HashPassword("rahasia123")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(bcrypt.CompareHashAndPassword([]byte(hash), []byte("rahasia123"))).To(gomega.Succeed())
		})
	})
})

var _ = ginkgo.Describe("User permissions", func() {
	ginkgo.It("should treat the blanket manager permission as a validator", func() {
		user := &User{Role: RoleManajer, Permissions: []string{PermManager}}

		gomega.Expect(user.CanValidateTransactions()).To(gomega.BeTrue())
		gomega.Expect(user.CanApproveHighValue()).To(gomega.BeTrue())
	})

	ginkgo.It("should not let a bendahara through the high value gate", func() {
		user := &User{Role: RoleBendahara, Permissions: []string{PermValidateTransactions}}

		gomega.Expect(user.CanValidateTransactions()).To(gomega.BeTrue())
		gomega.Expect(user.CanApproveHighValue()).To(gomega.BeFalse())
	})

	ginkgo.It("should give a petugas no validation rights", func() {
		user := &User{Role: RolePetugas, Permissions: []string{}}

		gomega.Expect(user.CanValidateTransactions()).To(gomega.BeFalse())
		gomega.Expect(user.CanApproveHighValue()).To(gomega.BeFalse())
	})
})
