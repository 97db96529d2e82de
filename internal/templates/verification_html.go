package templates

import (
	"bytes"
	"html/template"
)

type VerificationEmailData struct {
	RecipientName string
	Code          string
	Action        string
}

const verificationHTML = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8"/>
  <title>Ninthgrid Verification Code</title>
  <style>
    body {
      margin: 0;
      padding: 0;
      font-family: Arial, sans-serif;
      background-color: #f5f5f5;
      color: #333;
    }
    .email-container {
      width: 100%;
      max-width: 600px;
      margin: 0 auto;
      background-color: #ffffff;
      border-radius: 6px;
      overflow: hidden;
      box-shadow: 0 2px 5px rgba(0,0,0,0.1);
    }
    .header {
      background-color: #333;
      color: #fff;
      padding: 20px;
      text-align: center;
    }
    .content {
      padding: 24px;
      line-height: 1.5;
    }
    .code {
      font-size: 32px;
      letter-spacing: 8px;
      font-weight: bold;
      text-align: center;
      margin: 24px 0;
    }
    .footer {
      background-color: #fafafa;
      color: #999;
      font-size: 12px;
      padding: 16px;
      text-align: center;
    }
  </style>
</head>
<body>
  <table class="email-container" role="presentation" cellspacing="0" cellpadding="0">
    <tr>
      <td>
        <div class="header">
          <h1>Ninthgrid</h1>
        </div>
        <div class="content">
          {{if .RecipientName}}
            <p>Hi {{.RecipientName}},</p>
          {{else}}
            <p>Hello,</p>
          {{end}}
          <p>Use the code below to complete your {{.Action}}.</p>
          <div class="code">{{.Code}}</div>
          <p>If you did not request this code you can ignore this email.</p>
        </div>
        <div class="footer">
          <p>&copy; Ninthgrid. All rights reserved.</p>
        </div>
      </td>
    </tr>
  </table>
</body>
</html>
`

var verificationTmpl = template.Must(template.New("verification").Parse(verificationHTML))

func RenderVerificationHTML(data VerificationEmailData) (string, error) {
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
