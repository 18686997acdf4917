// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package events

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// WebhookClaims is the expected claim set of a signed external-webhook
// payload: the event fields plus standard registered claims for
// expiry/issuer checks.
type WebhookClaims struct {
	jwt.RegisteredClaims
	EventID             string                 `json:"event_id"`
	EventType           string                 `json:"event_type"`
	Priority            int                    `json:"priority"`
	Payload             map[string]interface{} `json:"payload"`
	AffectedWorkflowIDs []string               `json:"affected_workflow_ids"`
}

// WebhookVerifier verifies and decodes signed external-webhook deliveries
// before admitting them to the bus as TypeExternalWebhook events.
type WebhookVerifier struct {
	secret []byte
	issuer string
}

// NewWebhookVerifier builds a WebhookVerifier that checks tokens are
// signed with secret (HMAC) and, if issuer is non-empty, were issued by it.
func NewWebhookVerifier(secret []byte, issuer string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret, issuer: issuer}
}

// Verify parses and validates tokenString, returning the Event it encodes.
func (v *WebhookVerifier) Verify(tokenString string) (Event, error) {
	claims := &WebhookClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("events: unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Event{}, fmt.Errorf("events: webhook signature verification failed: %w", err)
	}
	if !token.Valid {
		return Event{}, fmt.Errorf("events: webhook token invalid")
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return Event{}, fmt.Errorf("events: webhook issuer %q does not match expected %q", claims.Issuer, v.issuer)
	}
	if claims.EventID == "" {
		return Event{}, fmt.Errorf("events: webhook payload missing event_id")
	}

	return Event{
		EventID:             claims.EventID,
		EventType:           TypeExternalWebhook,
		Priority:            Priority(claims.Priority),
		Source:              "external-webhook",
		Timestamp:           time.Now(),
		Payload:             claims.Payload,
		AffectedWorkflowIDs: claims.AffectedWorkflowIDs,
	}, nil
}
