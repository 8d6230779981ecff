package handlers

import (
	"net/http"

	"tibiawiki-api/pkg/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// AuthRequired rejects requests without an editor session.
func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get("access_token") == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

func GithubLogin(c *gin.Context) {
	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set("oauth_state", state)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session save failed"})
		return
	}
	url := config.OauthConf.AuthCodeURL(state, oauth2.AccessTypeOnline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func AuthCallback(c *gin.Context) {
	session := sessions.Default(c)
	if want, _ := session.Get("oauth_state").(string); want == "" || want != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth state mismatch"})
		return
	}

	token, err := config.OauthConf.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth Exchange Failed"})
		return
	}

	session.Delete("oauth_state")
	session.Set("access_token", token.AccessToken)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged in"})
}

func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
