// @title           SnipVault API
// @version         1.0
// @description     Self-hosted code snippet manager. Authenticate with a Personal Access Token.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerToken
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and your API token. Example: "Bearer sv_xxx"
package api
