package totp

import (
	"fmt"
	"sync"
	"testing"

	"github.com/openauthhq/openauth/services/client"
	"github.com/openauthhq/openauth/services/developer"
	"github.com/openauthhq/openauth/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *client.Service) {
	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &client.Client{}, &TOTPDevice{})
	clients := client.NewService(cfg, db, nil)
	return NewService(cfg, db, clients, nil), clients
}

func TestService_Enroll(t *testing.T) {
	service, clients := newTestService(t)
	app := &developer.App{ID: "app-1", Name: "Demo App"}

	t.Run("creates client and device", func(t *testing.T) {
		enrollment, err := service.Enroll(app, "user-1")

		require.NoError(t, err)
		assert.NotEmpty(t, enrollment.Secret)
		assert.Equal(t, client.MFATypeTOTP, enrollment.Client.MFAType)
		assert.True(t, enrollment.Client.Active)

		expected := fmt.Sprintf("otpauth://totp/Demo App:user-1?secret=%s&issuer=Demo App", enrollment.Secret)
		assert.Equal(t, expected, enrollment.ProvisioningURI)

		c, err := clients.Find(app, "user-1")
		require.NoError(t, err)
		assert.Equal(t, enrollment.Client.ID, c.ID)
	})

	t.Run("enrollment is idempotent", func(t *testing.T) {
		first, err := service.Enroll(app, "user-2")
		require.NoError(t, err)
		second, err := service.Enroll(app, "user-2")
		require.NoError(t, err)

		assert.Equal(t, first.Secret, second.Secret)
		assert.Equal(t, first.ProvisioningURI, second.ProvisioningURI)

		var count int64
		require.NoError(t, service.db.Model(&TOTPDevice{}).Where("client_id = ?", first.Client.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("apps get independent secrets for the same external id", func(t *testing.T) {
		other := &developer.App{ID: "app-2", Name: "Other App"}

		e1, err := service.Enroll(app, "shared-user")
		require.NoError(t, err)
		e2, err := service.Enroll(other, "shared-user")
		require.NoError(t, err)

		assert.NotEqual(t, e1.Client.ID, e2.Client.ID)
		assert.NotEqual(t, e1.Secret, e2.Secret)
	})
}

func TestService_Enroll_FallbackIssuer(t *testing.T) {
	service, _ := newTestService(t)
	app := &developer.App{ID: "app-1"}

	enrollment, err := service.Enroll(app, "user-1")

	require.NoError(t, err)
	expected := fmt.Sprintf("otpauth://totp/openauth-test:user-1?secret=%s&issuer=openauth-test", enrollment.Secret)
	assert.Equal(t, expected, enrollment.ProvisioningURI)
}

func TestService_Enroll_Concurrent(t *testing.T) {
	service, _ := newTestService(t)
	app := &developer.App{ID: "app-1", Name: "Demo App"}

	const workers = 8

	var wg sync.WaitGroup
	secrets := make([]string, workers)
	clientIDs := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			enrollment, err := service.Enroll(app, "race-user")
			if err != nil {
				errs[i] = err
				return
			}
			secrets[i] = enrollment.Secret
			clientIDs[i] = enrollment.Client.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, secrets[0], secrets[i], "all callers must receive the identical secret")
		assert.Equal(t, clientIDs[0], clientIDs[i])
	}

	var clientCount, deviceCount int64
	require.NoError(t, service.db.Model(&client.Client{}).Where("app_id = ? AND external_user_id = ?", app.ID, "race-user").Count(&clientCount).Error)
	require.NoError(t, service.db.Model(&TOTPDevice{}).Count(&deviceCount).Error)
	assert.Equal(t, int64(1), clientCount)
	assert.Equal(t, int64(1), deviceCount)
}
