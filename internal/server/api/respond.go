package api

import "github.com/gin-gonic/gin"

// JSONOK writes the success envelope with the payload fields inlined next to
// the ok flag.
func JSONOK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}

	c.JSON(status, body)
}
