package model

// VerificationStatus 照片核验结果
type VerificationStatus string

const (
	VerificationSuccess      VerificationStatus = "success"
	VerificationFailure      VerificationStatus = "failure"
	VerificationManualReview VerificationStatus = "manual-review"
)

// DefaultVerificationFailureMessage 核验失败且未带消息时展示
const DefaultVerificationFailureMessage = "We couldn't verify your photo. Please try again."

// VerificationResponse 每次提交照片产生一次
type VerificationResponse struct {
	Status  VerificationStatus `json:"status"`
	Message string             `json:"message,omitempty"`
}
