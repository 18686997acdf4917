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

package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestReEvaluationActionsTotal_IncrementsByLabel(t *testing.T) {
	ReEvaluationActionsTotal.Reset()
	ReEvaluationActionsTotal.WithLabelValues("ADD_STEP").Inc()
	ReEvaluationActionsTotal.WithLabelValues("ADD_STEP").Inc()
	ReEvaluationActionsTotal.WithLabelValues("AUTO_REJECT").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(ReEvaluationActionsTotal.WithLabelValues("ADD_STEP")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ReEvaluationActionsTotal.WithLabelValues("AUTO_REJECT")))
}

func TestSLABreachesTotal_IncrementsByApproverType(t *testing.T) {
	SLABreachesTotal.Reset()
	SLABreachesTotal.WithLabelValues("LINE_MANAGER").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(SLABreachesTotal.WithLabelValues("LINE_MANAGER")))
}

func TestNewLogger_BuildsComponentLogger(t *testing.T) {
	log := NewLogger("test-component")
	assert.NotNil(t, log)
}
