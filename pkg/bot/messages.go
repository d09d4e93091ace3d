package bot

const (
	btnCalendarMenu = "📅 Календарь бронирований"
	btnShowCalendar = "📅 Показать календарь"
	btnMyBookings   = "📝 Мои бронирования"
	btnBack         = "🔙 Назад"

	maxMessageLen = 4000
)

var messages = map[string]string{
	"invite_prompt":   "🔒 Только по приглашению.\nВведите код приглашения:",
	"invite_ok":       "✅ Код приглашения принят!\nТеперь можно меня использовать.",
	"invite_bad":      "❌ Неверный код приглашения. Попробуйте ещё раз.",
	"invite_throttle": "⏳ Слишком много попыток. Подождите минуту и попробуйте снова.",
	"welcome":         "Бронируйте моё время для Ваших поездок!\nВыберите действие в меню ниже:",
	"blocked":         "🚫 Ваш доступ приостановлен.",
	"no_user":         "Ошибка: пользователь не найден. Нажмите /start",
	"choose_action":   "Выберите действие:",
	"choose_date":     "Выберите дату:",
	"main_menu":       "Главное меню:",
	"bad_date":        "Неверный формат даты. Выберите дату из списка.",
	"no_drivers":      "Нет доступных водителей",
	"date_chosen":     "Вы выбрали дату: %s\nВыберите время начала:",
	"no_slots":        "На %s свободного времени нет. Выберите другую дату.",
	"bad_time":        "Неверный формат времени. Выберите из списка.",
	"past_time":       "Нельзя выбрать прошедшее время. Выберите другое.",
	"slot_taken":      "Это время уже занято. Выберите другое.",
	"choose_end":      "Теперь выберите время окончания:",
	"end_before":      "Время окончания должно быть позже времени начала. Выберите снова.",
	"notes_prompt":    "Хотите добавить заметку к бронированию? (например, адрес или особые пожелания)\nЕсли нет, отправьте '-'",
	"confirm":         "Подтвердите бронирование:\n📅 Дата: %s\n⏰ Время: %s - %s\n📝 Заметки: %s",
	"created":         "✅ Бронирование #%d подтверждено!\nВодитель будет ожидать вас %s с %s до %s.",
	"conflict":        "⚠️ К сожалению, выбранный интервал уже занят. Пожалуйста, выберите другое время.",
	"driver_gone":     "⚠️ Водитель сейчас недоступен. Попробуйте позже.",
	"invalid_range":   "⚠️ Выбранное время уже прошло или указано неверно. Начните заново.",
	"create_failed":   "❌ Не удалось создать бронирование. Попробуйте позже.",
	"aborted":         "❌ Бронирование отменено",
	"stale":           "Сессия устарела, начните заново.",
	"no_bookings":     "У вас нет активных бронирований",
	"my_bookings":     "📝 Ваши бронирования:",
	"booking_line":    "📅 %s - %s\n🚗 Водитель: %s\n📝 Заметки: %s\n🆔 ID: %d",
	"user_canceled":   "❌ Бронирование #%d отменено",
	"not_found":       "Бронирование не найдено",
	"try_later":       "Сервис временно недоступен, попробуйте позже.",
	"no_notes":        "нет",

	"denied":          "Доступ запрещён",
	"admin_panel":     "Админ-панель:\n/bookings - Все бронирования\n/drivers - Список водителей\n/cancel_booking - Отменить бронь\n/add_invite - Создать инвайт-код\n/cleanup - Удалить не активные",
	"admin_none":      "Нет активных бронирований",
	"admin_header":    "Активные бронирования:",
	"admin_line":      "🆔 ID: %d\n👤 Пользователь: %s (@%s)\n🚗 Водитель: %s\n📅 Время: %s - %s\n📝 Заметки: %s\n🔹 Статус: %s",
	"admin_drivers":   "Активные водители:",
	"admin_nodrivers": "Активных водителей нет",
	"ask_invite":      "Введите новый инвайт-код (или '-' для случайного):",
	"invite_added":    "Инвайт-код '%s' успешно добавлен",
	"invite_dup":      "Ошибка: такой код уже существует",
	"ask_booking_id":  "Введите ID брони для отмены:",
	"bad_id":          "Введите корректный ID (число)",
	"admin_canceled":  "Бронирование #%d отменено",
	"cleaned":         "Удалено %d отмененных бронирований",
	"notify_new":      "Новое бронирование #%d:\n👤 Пользователь: %s (@%s)\n🚗 Водитель: %s\n📅 Дата: %s\n⏰ Время: %s - %s\n📝 Заметки: %s",
	"bot_started":     "Бот запущен",
	"bot_stopped":     "Бот остановлен",
}
