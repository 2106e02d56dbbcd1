package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

const analysisSystemPrompt = "Bạn là một chuyên gia giáo dục, chuyên phân tích nội dung bài học từ PDF. " +
	"Hãy phân tích chính xác dựa trên nội dung được cung cấp và trả lời theo định dạng JSON."

const unknownValue = "Không rõ"

func buildAnalysisPrompt(doc domain.Document, text string) string {
	return fmt.Sprintf(`Hãy phân tích nội dung bài học dựa trên text được trích xuất từ PDF sau:

**Thông tin bài học:**
- Tên: %s
- Môn học: %s
- Lớp: %s

**Nội dung PDF:**
%s

**Yêu cầu phân tích:**
1. Tóm tắt nội dung chính của bài học (2-3 câu)
2. Liệt kê 5-7 chủ đề chính được đề cập
3. Trích xuất 10-15 từ khóa quan trọng
4. Tạo mô tả chi tiết về nội dung bài học

**Định dạng phản hồi JSON:**
{
  "summary": "Tóm tắt ngắn gọn về bài học",
  "topics": ["chủ đề 1", "chủ đề 2", ...],
  "keywords": ["từ khóa 1", "từ khóa 2", ...],
  "content": "Nội dung chi tiết về bài học",
  "extractedText": "Text trích xuất từ PDF (truncated nếu quá dài)"
}

Hãy phân tích dựa trên nội dung thực tế của PDF, phù hợp với trình độ học sinh lớp %s.
`, doc.Name, doc.Subject, doc.Grade, text, doc.Grade)
}

func buildChatSystemPrompt(req domain.AskRequest) string {
	var doc domain.Document
	if req.Document != nil {
		doc = *req.Document
	}

	var b strings.Builder
	b.WriteString("Bạn là một AI trợ lý giáo dục chuyên về phân tích và giải thích nội dung bài học.\n\n")
	b.WriteString("THÔNG TIN BÀI HỌC HIỆN TẠI:\n")
	fmt.Fprintf(&b, "- Tên bài: %s\n", orUnknown(doc.Name))
	fmt.Fprintf(&b, "- Môn học: %s\n", orUnknown(doc.Subject))
	fmt.Fprintf(&b, "- Lớp: %s\n", orUnknown(doc.Grade))
	fmt.Fprintf(&b, "- Trang hiện tại: %s\n", pageValue(req.PageSignal, true))
	fmt.Fprintf(&b, "- Tổng số trang: %s\n", pageValue(req.PageSignal, false))

	if a := req.Analysis; a != nil {
		fmt.Fprintf(&b, "\nNỘI DUNG BÀI HỌC (từ PDF thực tế):\n%s\n", a.Content)
		fmt.Fprintf(&b, "\nTÓM TẮT:\n%s\n", a.Summary)
		fmt.Fprintf(&b, "\nCHỦ ĐỀ CHÍNH:\n%s\n", strings.Join(a.Topics, ", "))
		fmt.Fprintf(&b, "\nTỪ KHÓA QUAN TRỌNG:\n%s\n", strings.Join(a.Keywords, ", "))
		if a.ExtractedText != "" {
			fmt.Fprintf(&b, "\nTEXT TRÍCH XUẤT TỪ PDF:\n%s\n", a.ExtractedText)
		}
	}

	grade := doc.Grade
	if grade == "" {
		grade = "đã chỉ định"
	}
	fmt.Fprintf(&b, `
NHIỆM VỤ CỦA BẠN:
1. CHỈ trả lời câu hỏi liên quan đến nội dung bài học này
2. Dựa trên nội dung THỰC TẾ đã trích xuất từ PDF
3. Nếu câu hỏi không liên quan đến bài học, hãy từ chối lịch sự và định hướng về nội dung bài học
4. Giải thích rõ ràng, phù hợp với trình độ học sinh lớp %s
5. Sử dụng tiếng Việt dễ hiểu, phù hợp với độ tuổi
6. Trích dẫn cụ thể từ nội dung PDF khi có thể
7. Khuyến khích học sinh đặt câu hỏi về bài học

CÁCH TRẢ LỜI:
- Ngắn gọn, dễ hiểu
- Có ví dụ cụ thể từ bài học
- Trích dẫn từ nội dung PDF
- Khuyến khích tư duy phản biện
- Liên kết với kiến thức thực tế

Hãy trả lời câu hỏi sau dựa trên nội dung thực tế của bài học:
`, grade)
	return b.String()
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return unknownValue
	}
	return v
}

func pageValue(signal *domain.PageSignal, current bool) string {
	if signal == nil {
		return unknownValue
	}
	ptr := signal.TotalPages
	if current {
		ptr = signal.PageNumber
	}
	if ptr == nil || *ptr == 0 {
		return unknownValue
	}
	return fmt.Sprintf("%d", *ptr)
}
