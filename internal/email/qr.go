package email

import (
	qrcode "github.com/skip2/go-qrcode"
)

const qrSizePx = 256

// acceptURLQR renders the invitation accept URL as a PNG QR code attachment.
// A nil attachment (on encode failure) means the email goes out without it;
// the link in the body remains the primary path.
func acceptURLQR(acceptURL string) *Attachment {
	png, err := qrcode.Encode(acceptURL, qrcode.Medium, qrSizePx)
	if err != nil {
		return nil
	}
	return &Attachment{
		Content:  png,
		FileName: "invite-qr.png",
		MIMEType: "image/png",
	}
}
