package obfuscation

import (
	"testing"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/stretchr/testify/assert"
)

func TestObfuscate(t *testing.T) {

	t.Run("ReturnsInputWhenNoSecretsCollected", func(t *testing.T) {

		client, _ := NewClient()

		// act
		output := client.Obfuscate("nothing to hide")

		assert.Equal(t, "nothing to hide", output)
	})

	t.Run("ReplacesValuesOfSecretLookingParameters", func(t *testing.T) {

		client, _ := NewClient()
		parameters := api.NewParameterSet()
		parameters.Set(api.Parameter{Name: "env.DEPLOY_TOKEN", Value: "abcdef123"})
		parameters.Set(api.Parameter{Name: "env.REGION", Value: "europe-west1"})
		client.CollectSecrets(parameters, nil)

		// act
		output := client.Obfuscate("deploying to europe-west1 with abcdef123")

		assert.Equal(t, "deploying to europe-west1 with ***", output)
	})

	t.Run("ReplacesValuesOfParametersDeclaredSecure", func(t *testing.T) {

		client, _ := NewClient()
		parameters := api.NewParameterSet()
		parameters.Set(api.Parameter{Name: "deploy.key", Value: "line-one\nline-two"})
		client.CollectSecrets(parameters, []string{"deploy.key"})

		// act
		output := client.Obfuscate("got line-two")

		assert.Equal(t, "got ***", output)
	})

	t.Run("HidesLongerSecretCompletelyWhenShorterOneIsItsPrefix", func(t *testing.T) {

		client, _ := NewClient()
		parameters := api.NewParameterSet()
		parameters.Set(api.Parameter{Name: "env.DB_PASSWORD", Value: "hunter22"})
		parameters.Set(api.Parameter{Name: "env.ADMIN_PASSWORD", Value: "hunter22-admin"})
		client.CollectSecrets(parameters, nil)

		// act
		output := client.Obfuscate("login with hunter22-admin or hunter22")

		assert.Equal(t, "login with *** or ***", output)
	})

	t.Run("DoesNotReplaceShortValues", func(t *testing.T) {

		client, _ := NewClient()
		parameters := api.NewParameterSet()
		parameters.Set(api.Parameter{Name: "system.password", Value: "abc"})
		client.CollectSecrets(parameters, nil)

		// act
		output := client.Obfuscate("abc")

		assert.Equal(t, "abc", output)
	})
}

func TestObfuscateParameters(t *testing.T) {

	t.Run("MasksSecretNamesAndKeepsOthers", func(t *testing.T) {

		client, _ := NewClient()
		parameters := api.NewParameterSet()
		parameters.Set(api.Parameter{Name: "system.password", Value: "abc"})
		parameters.Set(api.Parameter{Name: "env.REGION", Value: "europe-west1"})

		// act
		obfuscated := client.ObfuscateParameters(parameters)

		assert.Equal(t, "***", obfuscated["system.password"])
		assert.Equal(t, "europe-west1", obfuscated["env.REGION"])
	})
}

func TestIsSecret(t *testing.T) {

	t.Run("ReturnsTrueForSecretLookingNames", func(t *testing.T) {

		client, _ := NewClient()

		for _, name := range []string{"system.password", "env.DEPLOY_TOKEN", "client.secret", "key", "env.API_KEY", "ssh.key", "env.KEY_ID", "env.APIKEY"} {

			// act
			isSecret := client.IsSecret(name)

			assert.True(t, isSecret, name)
		}
	})

	t.Run("ReturnsFalseForNamesThatOnlyContainKey", func(t *testing.T) {

		client, _ := NewClient()

		for _, name := range []string{"env.REGION", "keyboard.layout", "env.MONKEY", "turnkey"} {

			// act
			isSecret := client.IsSecret(name)

			assert.False(t, isSecret, name)
		}
	})
}
