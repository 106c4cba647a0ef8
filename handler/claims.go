package handler

import (
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"feedback-api/internal/repository"
)

const (
	claimCognitoUsername = "cognito:username"
	claimEmail           = "email"
)

// requestClaims returns the identity claims attached by the API Gateway
// authorizer. REST APIs with a Cognito authorizer put them under
// authorizer.claims; HTTP API JWT authorizers nest them under
// authorizer.jwt.claims.
func requestClaims(req events.APIGatewayProxyRequest) (map[string]interface{}, bool) {
	auth := req.RequestContext.Authorizer
	if len(auth) == 0 {
		return nil, false
	}
	if claims, ok := auth["claims"].(map[string]interface{}); ok && len(claims) > 0 {
		return claims, true
	}
	if jwt, ok := auth["jwt"].(map[string]interface{}); ok {
		if claims, ok := jwt["claims"].(map[string]interface{}); ok && len(claims) > 0 {
			return claims, true
		}
	}
	return nil, false
}

// usernameFromClaims prefers cognito:username, then email.
func usernameFromClaims(claims map[string]interface{}) string {
	for _, key := range []string{claimCognitoUsername, claimEmail} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return repository.UnknownUsername
}
